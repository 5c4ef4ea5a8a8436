package host

import (
	"fmt"
	"sort"
	"sync"
)

// Func is a host function.
type Func func(args ...any) any

// Next runs the remainder of a hook chain.
type Next func(args ...any) any

// HookFunc intercepts calls to a host function.
type HookFunc func(args []any, next Next) any

// Interceptor is the host-side interception API consumed by the hook registry.
type Interceptor interface {
	// HookFunction installs fn on the named function and returns a handle
	// that uninstalls it.
	HookFunction(name string, priority int, fn HookFunc) (remove func(), err error)

	// Unload removes every hook installed through this interceptor.
	Unload()
}

// installed is a hook held by the runtime.
type installed struct {
	id       uint64
	priority int
	fn       HookFunc
}

// function is a named host function and its hook chain.
type function struct {
	original Func
	hooks    []installed
}

// Runtime is an in-process host: a table of named functions with
// priority-ordered hook chains.
type Runtime struct {
	mu       sync.RWMutex
	funcs    map[string]*function
	nextID   uint64
	unloaded bool
}

// NewRuntime creates an empty runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		funcs: make(map[string]*function),
	}
}

// Define adds or replaces the original implementation of a function.
// Hooks already installed on the name are kept.
func (r *Runtime) Define(name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("define %q: %w", name, ErrNilFunction)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.funcs[name]; ok {
		f.original = fn
		return nil
	}
	r.funcs[name] = &function{original: fn}
	return nil
}

// Has reports whether name is defined.
func (r *Runtime) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names returns the defined function names in sorted order.
func (r *Runtime) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HookCount returns the number of hooks installed on name.
func (r *Runtime) HookCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.funcs[name]; ok {
		return len(f.hooks)
	}
	return 0
}

// HookFunction implements Interceptor.
func (r *Runtime) HookFunction(name string, priority int, fn HookFunc) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("hook %q: %w", name, ErrNilHook)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unloaded {
		return nil, fmt.Errorf("hook %q: %w", name, ErrUnloaded)
	}

	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("hook %q: %w", name, ErrUnknownFunction)
	}

	r.nextID++
	id := r.nextID
	f.hooks = append(f.hooks, installed{id: id, priority: priority, fn: fn})
	sort.SliceStable(f.hooks, func(i, j int) bool {
		return f.hooks[i].priority > f.hooks[j].priority
	})

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(name, id) })
	}, nil
}

// remove uninstalls the hook with the given id.
func (r *Runtime) remove(name string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.funcs[name]
	if !ok {
		return
	}
	for i, h := range f.hooks {
		if h.id == id {
			f.hooks = append(f.hooks[:i], f.hooks[i+1:]...)
			return
		}
	}
}

// Unload implements Interceptor. It removes every hook; originals stay
// callable and further HookFunction calls fail with ErrUnloaded.
func (r *Runtime) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.funcs {
		f.hooks = nil
	}
	r.unloaded = true
}

// Call invokes name through its hook chain.
func (r *Runtime) Call(name string, args ...any) (any, error) {
	r.mu.RLock()
	f, ok := r.funcs[name]
	if !ok {
		r.mu.RUnlock()
		return nil, fmt.Errorf("call %q: %w", name, ErrUnknownFunction)
	}
	original := f.original
	hooks := make([]installed, len(f.hooks))
	copy(hooks, f.hooks)
	r.mu.RUnlock()

	return chain(hooks, original)(args...), nil
}

// MustCall is like Call but panics on an unknown function.
func (r *Runtime) MustCall(name string, args ...any) any {
	res, err := r.Call(name, args...)
	if err != nil {
		panic(err)
	}
	return res
}

// chain composes hooks around original, highest priority outermost.
func chain(hooks []installed, original Func) Next {
	next := Next(original)
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i].fn
		inner := next
		next = func(args ...any) any {
			return h(args, inner)
		}
	}
	return next
}
