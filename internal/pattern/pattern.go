// Package pattern implements the variable-binding algebra used by the
// matching engine and the hydration interpreter.
//
// Variables are numbered. During one evaluation step, indices below the
// length of the Scope refer to values bound by enclosing steps; the
// following indices refer to the Substitution slots introduced by the
// current step.
//
// Substitution slots are write-once. Backtracking never undoes a binding;
// every branch works on its own clone and a failed branch is discarded.
package pattern

import (
	"fmt"

	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// Pattern is either a variable or a fixed resource.
type Pattern struct {
	isVar    bool
	index    uint32
	resource rdf.Resource
}

// Var creates a variable pattern.
func Var(index uint32) Pattern {
	return Pattern{isVar: true, index: index}
}

// Resource creates a fixed resource pattern.
func Resource(r rdf.Resource) Pattern {
	return Pattern{resource: r}
}

// IsVar reports whether p is a variable.
func (p Pattern) IsVar() bool { return p.isVar }

// Index returns the variable index; ok is false for resource patterns.
func (p Pattern) Index() (index uint32, ok bool) {
	return p.index, p.isVar
}

// AsResource returns the fixed resource; ok is false for variables.
func (p Pattern) AsResource() (r rdf.Resource, ok bool) {
	return p.resource, !p.isVar
}

// String renders variables as "?N" and resources by id.
func (p Pattern) String() string {
	if p.isVar {
		return fmt.Sprintf("?%d", p.index)
	}
	return p.resource.String()
}

// Apply evaluates p under s.
//
// Applying an unbound variable is a contract violation: matching always
// binds every variable it introduces before patterns are applied. Apply
// returns nil in that case.
func (p Pattern) Apply(s Getter) value.Value {
	if !p.isVar {
		return value.Of(p.resource)
	}
	return s.Get(p.index)
}

// ApplyResource evaluates p and returns the bound resource. It fails if
// the variable is unbound or bound to something other than a resource.
func (p Pattern) ApplyResource(s Getter) (rdf.Resource, error) {
	v := p.Apply(s)
	if v == nil {
		return rdf.NoResource, fmt.Errorf("variable %s is unbound", p)
	}
	r, ok := value.IntoResource(v)
	if !ok {
		return rdf.NoResource, fmt.Errorf("variable %s is bound to non-resource value %s", p, v)
	}
	return r, nil
}

// Getter resolves a variable index to its bound value, or nil.
type Getter interface {
	Get(index uint32) value.Value
}

// Quad is a quad of patterns. A nil Graph stands for the current graph
// supplied by the caller of the matching step.
type Quad struct {
	Subject   Pattern
	Predicate Pattern
	Object    Pattern
	Graph     *Pattern
}

// NewQuad creates a pattern quad in the current graph.
func NewQuad(s, p, o Pattern) Quad {
	return Quad{Subject: s, Predicate: p, Object: o}
}

// InGraph returns a copy of q matching in graph g.
func (q Quad) InGraph(g Pattern) Quad {
	q.Graph = &g
	return q
}

// String renders the pattern quad.
func (q Quad) String() string {
	if q.Graph == nil {
		return fmt.Sprintf("(%s %s %s)", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("(%s %s %s %s)", q.Subject, q.Predicate, q.Object, *q.Graph)
}

// Variables calls fn for every variable index appearing in q.
func (q Quad) Variables(fn func(index uint32)) {
	for _, p := range []Pattern{q.Subject, q.Predicate, q.Object} {
		if i, ok := p.Index(); ok {
			fn(i)
		}
	}
	if q.Graph != nil {
		if i, ok := q.Graph.Index(); ok {
			fn(i)
		}
	}
}
