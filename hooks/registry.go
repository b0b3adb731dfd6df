package hooks

import (
	"fmt"
	"strings"
	"sync"
)

// NegationPrefix disables a plugin by name: the entry "no:foo" in the
// host's plugin list turns the "foo" plugin off.
const NegationPrefix = "no:"

// Registry holds registered plugins in registration order. It is safe for
// concurrent use, though hosts normally register everything up front.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	plugins  map[string]Plugin
	disabled map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:  make(map[string]Plugin),
		disabled: make(map[string]bool),
	}
}

// Register adds a plugin. Registering a name twice is an error.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin has no name")
	}
	if _, ok := r.plugins[name]; ok {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.plugins[name] = p
	r.order = append(r.order, name)
	return nil
}

// Deregister removes a plugin by name. Returns false if it was not
// registered.
func (r *Registry) Deregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[name]; !ok {
		return false
	}
	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Apply processes a host plugin list: plain names enable, "no:<name>"
// entries disable. Unknown names in the list are ignored; disabling is a
// host-side decision that may precede registration.
func (r *Registry) Apply(specs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, spec := range specs {
		if name, ok := strings.CutPrefix(spec, NegationPrefix); ok {
			r.disabled[name] = true
			continue
		}
		delete(r.disabled, spec)
	}
}

// Enabled reports whether the named plugin is registered and not disabled.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.plugins[name]
	return ok && !r.disabled[name]
}

// Plugins returns the enabled plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		out = append(out, r.plugins[name])
	}
	return out
}
