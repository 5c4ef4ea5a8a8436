package builtin

import (
	"context"
	"fmt"

	"github.com/dshills/modkit/internal/hook"
	"github.com/dshills/modkit/internal/host"
	"github.com/dshills/modkit/internal/module"
)

// DefaultNoticeTrigger is the host function after which the new-version
// notice is shown.
const DefaultNoticeTrigger = "ChatRoomSync"

// Version runs the settings migrations and shows the new-version notice.
type Version struct {
	module.Base
	trigger string
	remove  func()
}

// NewVersion creates the Version module. The notice is shown after the
// host function trigger runs; "" uses DefaultNoticeTrigger.
func NewVersion(trigger string) *Version {
	if trigger == "" {
		trigger = DefaultNoticeTrigger
	}
	return &Version{trigger: trigger}
}

// SettingsKey implements module.SettingsStorage. Version keeps no settings
// of its own.
func (v *Version) SettingsKey() string {
	return ""
}

// Load migrates the stored settings, then hooks the notice trigger. A
// migration failure is returned as is and stops the startup sequence.
// Loading again before Unload does nothing.
func (v *Version) Load(ctx context.Context) error {
	env := v.Env()
	if env.Versions == nil || v.remove != nil {
		return nil
	}
	res, err := env.Versions.Check(ctx)
	if err != nil {
		return err
	}
	env.Logger.Debug("settings at version", "previous", res.Previous, "current", res.Current, "new", res.IsNewVersion)

	remove, err := env.Hook(v.trigger, hook.PriorityObserve, v.afterTrigger)
	if err != nil {
		return fmt.Errorf("hook notice trigger: %w", err)
	}
	v.remove = remove
	return nil
}

func (v *Version) afterTrigger(args []any, next host.Next) any {
	result := next(args...)
	env := v.Env()
	if _, err := env.Versions.SendNewVersionNotice(context.Background()); err != nil {
		env.Logger.Warn("new version notice failed", "err", err)
	}
	return result
}

// Unload removes the notice hook.
func (v *Version) Unload(context.Context) error {
	if v.remove != nil {
		v.remove()
		v.remove = nil
	}
	return nil
}
