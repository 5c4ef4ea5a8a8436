package builtin

import (
	"context"
	"fmt"
	"path"

	"github.com/dshills/modkit/internal/hook"
	"github.com/dshills/modkit/internal/host"
	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/ui"
)

// DebugCacheKey is the local cache key of the debug toggles.
const DebugCacheKey = "debugOptions"

// DebugOptions are the debug toggles.
type DebugOptions struct {
	ShowRawTranslations bool `json:"showRawTranslations"`
	ShowFileNames       bool `json:"showFileNames"`
}

// TextFunction is a host text lookup the Debug module hooks.
type TextFunction struct {
	Name string
	// Scoped functions take the source file path before the tag.
	Scoped bool
}

// DefaultTextFunctions are the text lookups hooked when none are given.
var DefaultTextFunctions = []TextFunction{
	{Name: "TextGet"},
	{Name: "TextGetInScope", Scoped: true},
}

// Debug makes text lookups return their raw tags.
type Debug struct {
	module.Base
	functions []TextFunction
	opts      DebugOptions
}

// NewDebug creates the Debug module hooking functions, or
// DefaultTextFunctions when none are given.
func NewDebug(functions ...TextFunction) *Debug {
	if len(functions) == 0 {
		functions = DefaultTextFunctions
	}
	return &Debug{functions: functions}
}

// SettingsKey implements module.SettingsStorage. Debug toggles stay local.
func (d *Debug) SettingsKey() string {
	return ""
}

// Load restores the toggles from the local cache and hooks the text
// lookups. A function the host does not have is logged and skipped.
func (d *Debug) Load(ctx context.Context) error {
	env := d.Env()
	if env.Store != nil {
		var saved DebugOptions
		ok, err := env.Store.GetLocal(ctx, DebugCacheKey, &saved)
		if err != nil {
			env.Logger.Debug("debug options not restored", "err", err)
		} else if ok {
			d.opts = saved
		}
	}

	for _, fn := range d.functions {
		if _, err := env.Hook(fn.Name, hook.PriorityModifyBehavior, d.rawText(fn.Scoped)); err != nil {
			env.Logger.Warn("text lookup not hooked", "function", fn.Name, "err", err)
		}
	}
	return nil
}

// Options returns the current toggles.
func (d *Debug) Options() DebugOptions {
	return d.opts
}

// SetOptions changes the toggles and saves them to the local cache.
func (d *Debug) SetOptions(ctx context.Context, opts DebugOptions) error {
	d.opts = opts
	env := d.Env()
	if env == nil || env.Store == nil {
		return nil
	}
	return env.Store.SetLocal(ctx, DebugCacheKey, opts)
}

// SettingsScreen implements module.SettingsScreen. The screen is bound to
// the toggles, not to synced settings.
func (d *Debug) SettingsScreen(map[string]any) *ui.Screen {
	t := d.Env().T
	s := ui.NewScreen("DebugModule", t("settings.debug.title"), []ui.Element{
		{ID: "debug-raw", Kind: ui.KindCheckbox, Label: t("settings.debug.raw_translations"), Setting: "showRawTranslations"},
		{ID: "debug-files", Kind: ui.KindCheckbox, Label: t("settings.debug.file_names"), Setting: "showFileNames"},
	})
	s.Fill(map[string]any{
		"showRawTranslations": d.opts.ShowRawTranslations,
		"showFileNames":       d.opts.ShowFileNames,
	})
	return s
}

// ApplyScreen implements module.ScreenApplier.
func (d *Debug) ApplyScreen(ctx context.Context, values map[string]any) error {
	opts := d.opts
	if v, ok := values["showRawTranslations"].(bool); ok {
		opts.ShowRawTranslations = v
	}
	if v, ok := values["showFileNames"].(bool); ok {
		opts.ShowFileNames = v
	}
	return d.SetOptions(ctx, opts)
}

func (d *Debug) rawText(scoped bool) host.HookFunc {
	return func(args []any, next host.Next) any {
		if !d.opts.ShowRawTranslations {
			return next(args...)
		}

		file := "[unknown]"
		var tag any
		switch {
		case scoped && len(args) >= 2:
			file = path.Base(fmt.Sprint(args[0]))
			tag = args[1]
		case !scoped && len(args) >= 1:
			tag = args[0]
		default:
			return next(args...)
		}

		if d.opts.ShowFileNames {
			return fmt.Sprintf("%s::%v", file, tag)
		}
		return tag
	}
}
