package templates

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicate is returned when a template id is registered twice. Silent
// overwrite is never allowed: validating against the wrong rule set is worse
// than failing boot.
var ErrDuplicate = errors.New("template already registered")

// ErrNotFound is returned when a template id cannot be resolved.
var ErrNotFound = errors.New("template not found")

// Registry maps template ids to templates. It is constructed explicitly and
// passed by reference; registration happens at startup, lookups afterwards.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
	}
}

// Register adds a template. A duplicate id or malformed template is rejected.
func (r *Registry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

// Get resolves a template by id.
func (r *Registry) Get(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return t, nil
}

// All returns every registered template, sorted by id.
func (r *Registry) All() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}
