package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockScreen() *Screen {
	return NewScreen("Clock", "Clock settings",
		[]Element{
			{ID: "fmt", Kind: KindText, Label: "Format", Setting: "format"},
			{ID: "secs", Kind: KindCheckbox, Label: "Seconds", Setting: "display.seconds"},
			{ID: "hdr", Kind: KindLabel, Label: "Display"},
		},
		[]Element{
			{ID: "offset", Kind: KindNumber, Setting: "offset"},
		},
	)
}

func TestScreenPaging(t *testing.T) {
	s := clockScreen()
	assert.Equal(t, 1, s.Current())
	assert.Equal(t, 2, s.Next())
	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.Prev())
	assert.Equal(t, 1, s.ChangePage(7))

	page, err := s.Page()
	require.NoError(t, err)
	assert.Equal(t, "Clock", page.Screen)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Elements, 3)

	_, err = NewScreen("Empty", "").Page()
	assert.ErrorIs(t, err, ErrEmptyScreen)
}

func TestScreenFill(t *testing.T) {
	s := clockScreen()
	s.Fill(map[string]any{
		"format":  "24h",
		"display": map[string]any{"seconds": true},
	})
	assert.Equal(t, "24h", s.Pages[0][0].Value)
	assert.Equal(t, true, s.Pages[0][1].Value)
	assert.Nil(t, s.Pages[0][2].Value)
	assert.Nil(t, s.Pages[1][0].Value)
}

func TestHeadlessRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewHeadless()
	s := clockScreen()
	s.Fill(map[string]any{"format": "12h", "offset": 0})

	for range s.Pages {
		page, err := s.Page()
		require.NoError(t, err)
		require.NoError(t, h.Render(ctx, page))
		s.Next()
	}
	require.Len(t, h.Rendered(), 2)

	require.NoError(t, h.Input("Clock", "fmt", "24h"))
	require.NoError(t, h.Input("Clock", "secs", true))
	assert.ErrorIs(t, h.Input("Clock", "nope", 1), ErrUnknownElement)
	assert.ErrorIs(t, h.Input("Other", "fmt", 1), ErrUnknownPage)

	values, err := h.ActiveValues(ctx, "Clock")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"format":          "24h",
		"display.seconds": true,
		"offset":          0,
	}, values)

	settings := map[string]any{"format": "12h"}
	assert.Equal(t, 3, Apply(settings, values))
	assert.Equal(t, map[string]any{
		"format":  "24h",
		"display": map[string]any{"seconds": true},
		"offset":  0,
	}, settings)

	h.Close("Clock")
	_, err = h.ActiveValues(ctx, "Clock")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestHeadlessRerenderKeepsInput(t *testing.T) {
	ctx := context.Background()
	h := NewHeadless()
	s := clockScreen()
	page, err := s.Page()
	require.NoError(t, err)

	require.NoError(t, h.Render(ctx, page))
	require.NoError(t, h.Input("Clock", "fmt", "24h"))
	require.NoError(t, h.Render(ctx, page))

	values, err := h.ActiveValues(ctx, "Clock")
	require.NoError(t, err)
	assert.Equal(t, "24h", values["format"])
}

func TestHeadlessClick(t *testing.T) {
	ctx := context.Background()
	h := NewHeadless()
	clicked := 0
	page := Page{Screen: "S", Elements: []Element{
		{ID: "reset", Kind: KindButton, OnClick: func(context.Context) error {
			clicked++
			return nil
		}},
		{ID: "noop", Kind: KindButton},
	}}
	require.NoError(t, h.Render(ctx, page))
	require.NoError(t, h.Click(ctx, "S", "reset"))
	require.NoError(t, h.Click(ctx, "S", "noop"))
	assert.Equal(t, 1, clicked)

	values, err := h.ActiveValues(ctx, "S")
	require.NoError(t, err)
	assert.Empty(t, values)
}
