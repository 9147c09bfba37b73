package resource

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownType is returned when a resource type has no registered schema.
var ErrUnknownType = errors.New("unknown resource type")

// Registry holds one schema per resource type.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register adds a schema. Registering a type twice is an error.
func (r *Registry) Register(s Schema) error {
	if s.Type() == "" {
		return errors.New("schema type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.Type()]; exists {
		return fmt.Errorf("resource type %q already registered", s.Type())
	}
	r.schemas[s.Type()] = s
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(schemas ...Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the schema for typ.
func (r *Registry) Lookup(typ string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[typ]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return s, nil
}

// Types returns the registered types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Check verifies that every relationship points at a registered type.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, typ := range sortedKeys(r.schemas) {
		for _, f := range r.schemas[typ].fields {
			if !f.IsRelationship() {
				continue
			}
			if _, ok := r.schemas[f.Related]; !ok {
				errs = append(errs, fmt.Errorf("%s.%s: %w: %q", typ, f.Name, ErrUnknownType, f.Related))
			}
		}
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
