// Package ui describes settings screens and the renderer that shows them.
//
// The framework never draws anything itself. A module describes its
// settings screen as pages of elements bound to settings fields; a Renderer
// shows a page and, when the screen closes, reports the values the user
// left in it. Headless is a Renderer that keeps pages in memory.
package ui

import (
	"context"
	"errors"
)

// UI errors.
var (
	// ErrUnknownPage is returned for a page that was never rendered.
	ErrUnknownPage = errors.New("unknown page")

	// ErrUnknownElement is returned for an element not on a page.
	ErrUnknownElement = errors.New("unknown element")

	// ErrEmptyScreen is returned when rendering a screen without pages.
	ErrEmptyScreen = errors.New("screen has no pages")
)

// Kind is the type of a screen element.
type Kind string

// Element kinds.
const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindCheckbox Kind = "checkbox"
	KindButton   Kind = "button"
	KindLabel    Kind = "label"
)

// Editable reports whether elements of this kind hold a user value.
func (k Kind) Editable() bool {
	switch k {
	case KindText, KindNumber, KindCheckbox:
		return true
	}
	return false
}

// Element is one control on a page.
type Element struct {
	ID      string
	Kind    Kind
	Label   string
	Tooltip string

	// Setting is the dot-separated path of the bound field inside the
	// module's settings. Empty for elements not bound to a setting.
	Setting string

	// Value is the current value of an editable element.
	Value any

	// OnClick runs when a button is pressed.
	OnClick func(ctx context.Context) error
}

// Page is one rendered page of a screen.
type Page struct {
	// Screen names the screen the page belongs to.
	Screen   string
	Title    string
	Number   int
	Total    int
	Elements []Element
}

// Renderer shows pages and reads back what the user entered.
type Renderer interface {
	Render(ctx context.Context, page Page) error
	ActiveValues(ctx context.Context, screen string) (map[string]any, error)
}
