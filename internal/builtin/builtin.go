package builtin

import (
	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/storage"
)

// Registry keys of the built-in modules.
const (
	GlobalKey  = storage.GlobalKey
	VersionKey = "VersionModule"
	DebugKey   = "DebugModule"
)

// Options configures the built-in modules.
type Options struct {
	// NoticeTrigger is the host function after which the new-version
	// notice is shown.
	NoticeTrigger string

	// TextFunctions are the text lookups the Debug module hooks.
	TextFunctions []TextFunction

	// Debug registers the Debug module.
	Debug bool
}

// Register adds the built-in modules to reg, ahead of any other module.
func Register(reg *module.Registry, opts Options) error {
	if err := reg.Register(GlobalKey, NewGlobal()); err != nil {
		return err
	}
	if err := reg.Register(VersionKey, NewVersion(opts.NoticeTrigger)); err != nil {
		return err
	}
	if opts.Debug {
		if err := reg.Register(DebugKey, NewDebug(opts.TextFunctions...)); err != nil {
			return err
		}
	}
	return nil
}
