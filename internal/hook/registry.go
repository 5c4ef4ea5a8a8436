package hook

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/host"
)

// Entry describes one registered hook.
type Entry struct {
	Callback *Callback
	Priority int
	Owner    string
}

// entry is a registered hook and the host handle that uninstalls it.
type entry struct {
	Entry
	hostRemove func()
}

// patchedFunction holds the hooks registered on one host function, sorted
// by priority descending with ties in registration order.
type patchedFunction struct {
	name  string
	hooks []*entry
}

func (p *patchedFunction) contains(cb *Callback) bool {
	for _, e := range p.hooks {
		if e.Callback == cb {
			return true
		}
	}
	return false
}

// Registry tracks hooks installed through a host interceptor.
type Registry struct {
	mu          sync.Mutex
	interceptor host.Interceptor
	patched     map[string]*patchedFunction
	logger      *log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry on top of interceptor.
func NewRegistry(interceptor host.Interceptor, opts ...Option) *Registry {
	r := &Registry{
		interceptor: interceptor,
		patched:     make(map[string]*patchedFunction),
		logger:      log.Default().WithPrefix("hook"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// patchable returns the record for target, creating it on first use.
// Caller must hold r.mu.
func (r *Registry) patchable(target string) *patchedFunction {
	p, ok := r.patched[target]
	if !ok {
		p = &patchedFunction{name: target}
		r.patched[target] = p
	}
	return p
}

// Register installs cb on target at the given priority, tagged with owner
// ("" for none). Registering a callback already present on target installs
// nothing and returns a no-op handle. The returned handle removes exactly
// this hook; calling it more than once is safe.
func (r *Registry) Register(target string, priority int, cb *Callback, owner string) (func(), error) {
	if cb == nil || cb.fn == nil {
		return nil, &RegistrationError{Target: target, Callback: cb.Name(), Owner: owner, Err: ErrNilCallback}
	}
	if r.interceptor == nil {
		return nil, &RegistrationError{Target: target, Callback: cb.Name(), Owner: owner, Err: ErrNoInterceptor}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.patchable(target)
	if p.contains(cb) {
		r.logger.Debug("hook already registered", "target", target, "callback", cb.Name())
		return func() {}, nil
	}

	hostRemove, err := r.interceptor.HookFunction(target, priority, cb.fn)
	if err != nil {
		return nil, &RegistrationError{Target: target, Callback: cb.Name(), Owner: owner, Err: err}
	}

	e := &entry{
		Entry:      Entry{Callback: cb, Priority: priority, Owner: owner},
		hostRemove: hostRemove,
	}
	p.hooks = append(p.hooks, e)
	sort.SliceStable(p.hooks, func(i, j int) bool {
		return p.hooks[i].Priority > p.hooks[j].Priority
	})

	r.logger.Debug("hook registered", "target", target, "callback", cb.Name(), "priority", priority, "owner", owner)

	return func() { r.removeEntry(target, e) }, nil
}

// removeEntry removes e from target if it is still registered.
func (r *Registry) removeEntry(target string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patched[target]
	if !ok {
		return
	}
	for i, h := range p.hooks {
		if h == e {
			p.hooks = append(p.hooks[:i], p.hooks[i+1:]...)
			callHostRemove(e)
			return
		}
	}
}

// RemoveByOwner removes every hook on target registered by owner.
// It always returns true; removing from an empty set is a no-op.
func (r *Registry) RemoveByOwner(target, owner string) bool {
	if owner == "" {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.patched[target]; ok {
		r.removeOwned(p, owner)
	}
	return true
}

// RemoveAllByOwner removes every hook registered by owner on any function.
// It always returns true.
func (r *Registry) RemoveAllByOwner(owner string) bool {
	if owner == "" {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.patched {
		r.removeOwned(p, owner)
	}
	return true
}

// removeOwned drops owner's hooks from p. Caller must hold r.mu.
func (r *Registry) removeOwned(p *patchedFunction, owner string) {
	kept := p.hooks[:0]
	removed := 0
	for _, e := range p.hooks {
		if e.Owner == owner {
			callHostRemove(e)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(p.hooks); i++ {
		p.hooks[i] = nil
	}
	p.hooks = kept

	if removed > 0 {
		r.logger.Debug("hooks removed", "target", p.name, "owner", owner, "count", removed)
	}
}

func callHostRemove(e *entry) {
	if e.hostRemove != nil {
		e.hostRemove()
	}
}

// Unload tears down the host connection, dropping every hook.
func (r *Registry) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interceptor != nil {
		r.interceptor.Unload()
	}
	for _, p := range r.patched {
		p.hooks = nil
	}
	r.logger.Debug("hook registry unloaded")
}

// Hooks returns the hooks registered on target in call order.
func (r *Registry) Hooks(target string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patched[target]
	if !ok {
		return nil
	}
	out := make([]Entry, len(p.hooks))
	for i, e := range p.hooks {
		out[i] = e.Entry
	}
	return out
}

// Targets returns the names of functions with at least one hook, sorted.
func (r *Registry) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.patched))
	for name, p := range r.patched {
		if len(p.hooks) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of registered hooks.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, p := range r.patched {
		n += len(p.hooks)
	}
	return n
}
