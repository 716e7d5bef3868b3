package extensions

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maintains the known extensions by name. Population happens at
// startup (statically linked catalog, declarative definitions, or both);
// lookups during expansion are read-only.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Extension
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]Extension{}}
}

// Register installs an extension. Returns an error for an empty or
// duplicate name.
func (r *Registry) Register(ext Extension) error {
	if ext == nil {
		return fmt.Errorf("extensions: extension is required")
	}
	name := ext.Name()
	if name == "" {
		return fmt.Errorf("extensions: name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[name]; exists {
		return fmt.Errorf("extensions: %s already registered", name)
	}
	r.byID[name] = ext
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(ext Extension) {
	if err := r.Register(ext); err != nil {
		panic(err)
	}
}

// Lookup resolves a name to its extension.
func (r *Registry) Lookup(name string) (Extension, error) {
	r.mu.RLock()
	ext, ok := r.byID[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, name)
	}
	return ext, nil
}

// Names returns the registered extension names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byID))
	for name := range r.byID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
