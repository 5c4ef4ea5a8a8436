package builtin

import (
	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/ui"
	"github.com/dshills/modkit/internal/version"
)

// Global setting fields.
const (
	FieldModEnabled = "modEnabled"
	FieldShowNotice = version.NoticePrefField
)

// Global owns the framework-wide preferences.
type Global struct {
	module.Base
}

// NewGlobal creates the Global module.
func NewGlobal() *Global {
	return &Global{}
}

// SettingsKey implements module.SettingsStorage.
func (g *Global) SettingsKey() string {
	return storage.GlobalKey
}

// DefaultSettings implements module.DefaultSettings.
func (g *Global) DefaultSettings() map[string]any {
	return map[string]any{
		FieldModEnabled: true,
		FieldShowNotice: true,
	}
}

// SettingsScreen implements module.SettingsScreen.
func (g *Global) SettingsScreen(settings map[string]any) *ui.Screen {
	t := g.Env().T
	s := ui.NewScreen(storage.GlobalKey, t("settings.global.title"), []ui.Element{
		{ID: "global-mod-enabled", Kind: ui.KindCheckbox, Label: t("settings.global.mod_enabled"), Setting: FieldModEnabled},
		{ID: "global-new-version", Kind: ui.KindCheckbox, Label: t("settings.global.new_version_message"), Setting: FieldShowNotice},
	})
	s.Fill(settings)
	return s
}

// Enabled reports the modEnabled preference.
func (g *Global) Enabled() bool {
	settings, err := g.Settings()
	if err != nil {
		return false
	}
	on, _ := settings[FieldModEnabled].(bool)
	return on
}
