package module

import (
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
)

// Entry is a registered module and its key.
type Entry struct {
	Key    string
	Module Module
}

// Registry holds modules by key in first-registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	modules map[string]Module
	logger  *log.Logger
}

// NewRegistry creates an empty registry. A nil logger uses the default.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default().WithPrefix("module")
	}
	return &Registry{
		modules: make(map[string]Module),
		logger:  logger,
	}
}

// TypeName returns the name of m's concrete type, without package or
// pointer: the default registry key.
func TypeName(m Module) string {
	t := reflect.TypeOf(m)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Register adds m under key. Registering a key twice replaces the earlier
// module, keeping its position, and logs the collision.
func (r *Registry) Register(key string, m Module) error {
	if m == nil {
		return ErrNilModule
	}
	if key == "" {
		return ErrEmptyKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.modules[key]; exists {
		r.logger.Warn("module key registered twice, replacing",
			"key", key, "previous", TypeName(prev), "module", TypeName(m))
	} else {
		r.order = append(r.order, key)
	}
	r.modules[key] = m
	return nil
}

// Add registers m under its type name.
func (r *Registry) Add(m Module) error {
	if m == nil {
		return ErrNilModule
	}
	return r.Register(TypeName(m), m)
}

// Get returns the module registered under key.
func (r *Registry) Get(key string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[key]
	return m, ok
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns the registered modules in order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, Entry{Key: k, Module: r.modules[k]})
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Find returns the first registered module of type T.
func Find[T Module](r *Registry) (T, bool) {
	for _, e := range r.Entries() {
		if m, ok := e.Module.(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}
