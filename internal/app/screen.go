package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/ui"
)

// OpenScreen renders the settings screen of the module registered under
// key.
func (a *App) OpenScreen(ctx context.Context, key string) (*ui.Screen, error) {
	if a.renderer == nil {
		return nil, ErrNoRenderer
	}
	if !a.manager.Loaded() {
		return nil, ErrNotLoaded
	}
	mod, ok := a.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", module.ErrNotFound, key)
	}
	sm, ok := mod.(module.SettingsScreen)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoScreen, key)
	}

	settings, err := a.manager.Settings(key)
	if err != nil && !errors.Is(err, module.ErrNoSettings) {
		return nil, err
	}
	screen := sm.SettingsScreen(settings)
	if screen == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoScreen, key)
	}

	if err := a.render(ctx, screen); err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.screens[key] = screen
	a.mu.Unlock()
	return screen, nil
}

// ChangePage shows page n of an open screen, wrapping past either end.
func (a *App) ChangePage(ctx context.Context, key string, n int) (int, error) {
	screen, err := a.openScreen(key)
	if err != nil {
		return 0, err
	}
	page := screen.ChangePage(n)
	return page, a.render(ctx, screen)
}

// CloseScreen writes the values shown on an open screen into the module's
// settings and saves them.
func (a *App) CloseScreen(ctx context.Context, key string) error {
	screen, err := a.openScreen(key)
	if err != nil {
		return err
	}

	values, err := a.renderer.ActiveValues(ctx, screen.Name)
	if err != nil {
		return fmt.Errorf("read %s screen: %w", key, err)
	}

	mod, _ := a.registry.Get(key)
	if applier, ok := mod.(module.ScreenApplier); ok {
		if err := applier.ApplyScreen(ctx, values); err != nil {
			return fmt.Errorf("apply %s screen: %w", key, err)
		}
	} else {
		settings, err := a.manager.Settings(key)
		if err != nil {
			return err
		}
		n := ui.Apply(settings, values)
		a.logger.Debug("screen applied", "module", key, "fields", n)
	}

	a.mu.Lock()
	delete(a.screens, key)
	a.mu.Unlock()
	return a.store.Save(ctx)
}

func (a *App) openScreen(key string) (*ui.Screen, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	screen, ok := a.screens[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoScreen, key)
	}
	return screen, nil
}

func (a *App) render(ctx context.Context, screen *ui.Screen) error {
	page, err := screen.Page()
	if err != nil {
		return err
	}
	return a.renderer.Render(ctx, page)
}
