package ui

import (
	"context"
	"fmt"
	"sync"
)

// Headless is an in-memory Renderer. Tests and the CLI drive it with Input
// and Click in place of a user.
type Headless struct {
	mu       sync.Mutex
	screens  map[string]map[string]*Element
	rendered []Page
}

// NewHeadless creates an empty renderer.
func NewHeadless() *Headless {
	return &Headless{screens: make(map[string]map[string]*Element)}
}

// Render implements Renderer. Elements already shown for the screen keep
// the value the user gave them.
func (h *Headless) Render(ctx context.Context, page Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	elems, ok := h.screens[page.Screen]
	if !ok {
		elems = make(map[string]*Element)
		h.screens[page.Screen] = elems
	}
	for i := range page.Elements {
		el := page.Elements[i]
		if _, seen := elems[el.ID]; seen {
			continue
		}
		elems[el.ID] = &el
	}
	h.rendered = append(h.rendered, page)
	return nil
}

// ActiveValues implements Renderer. It returns the values of every bound,
// editable element shown for the screen.
func (h *Headless) ActiveValues(ctx context.Context, screen string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	elems, ok := h.screens[screen]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, screen)
	}
	values := make(map[string]any)
	for _, el := range elems {
		if el.Setting != "" && el.Kind.Editable() {
			values[el.Setting] = el.Value
		}
	}
	return values, nil
}

// Input sets the value of an element, as a user typing or ticking it.
func (h *Headless) Input(screen, id string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	el, err := h.element(screen, id)
	if err != nil {
		return err
	}
	el.Value = value
	return nil
}

// Click presses a button.
func (h *Headless) Click(ctx context.Context, screen, id string) error {
	h.mu.Lock()
	el, err := h.element(screen, id)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	if el.OnClick == nil {
		return nil
	}
	return el.OnClick(ctx)
}

// Close forgets a screen.
func (h *Headless) Close(screen string) {
	h.mu.Lock()
	delete(h.screens, screen)
	h.mu.Unlock()
}

// Rendered returns every page rendered so far, in order.
func (h *Headless) Rendered() []Page {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Page, len(h.rendered))
	copy(out, h.rendered)
	return out
}

func (h *Headless) element(screen, id string) (*Element, error) {
	elems, ok := h.screens[screen]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, screen)
	}
	el, ok := elems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownElement, screen, id)
	}
	return el, nil
}
