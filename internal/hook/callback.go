package hook

import "github.com/dshills/modkit/internal/host"

// Standard hook priorities.
const (
	PriorityObserve          = 0
	PriorityAddBehavior      = 1
	PriorityModifyBehavior   = 5
	PriorityOverrideBehavior = 10
	PriorityTop              = 100
)

// Callback is a hook implementation. Its identity is the pointer: the same
// *Callback registered twice on a function is installed once.
type Callback struct {
	name string
	fn   host.HookFunc
}

// NewCallback creates a callback. The name is used in logs and errors only.
func NewCallback(name string, fn host.HookFunc) *Callback {
	return &Callback{name: name, fn: fn}
}

// Name returns the callback name.
func (c *Callback) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Func returns the underlying hook function.
func (c *Callback) Func() host.HookFunc {
	return c.fn
}
