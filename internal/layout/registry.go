package layout

import (
	"fmt"
	"slices"
)

// Layouts resolves layout references.
type Layouts interface {
	Get(ref Ref) (Layout, bool)
}

// Registry is an in-memory Layouts implementation.
// It remembers insertion order for deterministic iteration.
type Registry struct {
	layouts map[Ref]Layout
	names   map[Ref]string
	order   []Ref
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[Ref]Layout), names: make(map[Ref]string)}
}

// SetName records the IRI a layout was declared with, for diagnostics.
func (r *Registry) SetName(ref Ref, iri string) {
	r.names[ref] = iri
}

// Name returns the declared IRI of ref, or its resource representation.
func (r *Registry) Name(ref Ref) string {
	if name, ok := r.names[ref]; ok {
		return name
	}
	return ref.String()
}

// Insert registers l under ref. Registering a ref twice is an error.
func (r *Registry) Insert(ref Ref, l Layout) error {
	if l == nil {
		return fmt.Errorf("layout %s is nil", ref)
	}
	if _, exists := r.layouts[ref]; exists {
		return fmt.Errorf("layout %s already registered", ref)
	}
	r.layouts[ref] = l
	r.order = append(r.order, ref)
	return nil
}

// Get implements Layouts.
func (r *Registry) Get(ref Ref) (Layout, bool) {
	l, ok := r.layouts[ref]
	return l, ok
}

// Refs returns every registered ref in insertion order.
func (r *Registry) Refs() []Ref {
	return slices.Clone(r.order)
}

// Len returns the number of registered layouts.
func (r *Registry) Len() int {
	return len(r.order)
}
