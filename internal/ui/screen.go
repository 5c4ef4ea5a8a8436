package ui

import (
	"github.com/dshills/modkit/internal/merge"
)

// Screen is a module's settings screen, split into pages.
type Screen struct {
	Name    string
	Title   string
	Pages   [][]Element
	current int
}

// NewScreen creates a screen showing its first page.
func NewScreen(name, title string, pages ...[]Element) *Screen {
	return &Screen{Name: name, Title: title, Pages: pages, current: 1}
}

// Current returns the 1-based number of the shown page.
func (s *Screen) Current() int {
	if s.current < 1 {
		return 1
	}
	return s.current
}

// ChangePage shows page n, wrapping past either end.
func (s *Screen) ChangePage(n int) int {
	total := len(s.Pages)
	if total == 0 {
		s.current = 1
		return s.current
	}
	if n > total {
		n = 1
	}
	if n < 1 {
		n = total
	}
	s.current = n
	return n
}

// Next shows the following page.
func (s *Screen) Next() int { return s.ChangePage(s.Current() + 1) }

// Prev shows the previous page.
func (s *Screen) Prev() int { return s.ChangePage(s.Current() - 1) }

// Page returns the shown page.
func (s *Screen) Page() (Page, error) {
	if len(s.Pages) == 0 {
		return Page{}, ErrEmptyScreen
	}
	n := min(s.Current(), len(s.Pages))
	elems := make([]Element, len(s.Pages[n-1]))
	copy(elems, s.Pages[n-1])
	return Page{
		Screen:   s.Name,
		Title:    s.Title,
		Number:   n,
		Total:    len(s.Pages),
		Elements: elems,
	}, nil
}

// Fill copies bound values from settings into the screen's elements.
func (s *Screen) Fill(settings map[string]any) {
	for _, page := range s.Pages {
		for i := range page {
			el := &page[i]
			if el.Setting == "" || !el.Kind.Editable() {
				continue
			}
			if v, ok := merge.GetByPath(settings, el.Setting); ok {
				el.Value = v
			}
		}
	}
}

// Apply writes active values, keyed by setting path, into settings. It
// returns the number of fields written.
func Apply(settings map[string]any, values map[string]any) int {
	n := 0
	for path, v := range values {
		if merge.SetByPath(settings, path, v) {
			n++
		}
	}
	return n
}
