package rdf

import (
	"fmt"
	"strconv"
)

// Resource is an opaque identifier for an interpreted RDF term.
// Resources are ordered by id; the order carries no meaning beyond
// determinism.
type Resource uint32

// NoResource is never assigned to a term. In the graph position of a quad
// it denotes the default graph.
const NoResource Resource = 0

// String returns a debug representation of the resource.
func (r Resource) String() string {
	if r == NoResource {
		return "_"
	}
	return "#" + strconv.FormatUint(uint64(r), 10)
}

// Compare orders resources by id.
func (r Resource) Compare(other Resource) int {
	switch {
	case r < other:
		return -1
	case r > other:
		return 1
	default:
		return 0
	}
}

// ReverseIriInterpretation lists the IRIs interpreted as a resource.
type ReverseIriInterpretation interface {
	Iris(r Resource) ([]string, error)
}

// ReverseLiteralInterpretation lists the literal representations
// interpreted as a resource.
type ReverseLiteralInterpretation interface {
	Literals(r Resource) ([]Literal, error)
}

// ReverseInterpretation combines both reverse capabilities.
type ReverseInterpretation interface {
	ReverseIriInterpretation
	ReverseLiteralInterpretation
}

// Interner maps terms to resources, allocating a fresh resource for
// unknown terms.
type Interner interface {
	InternTerm(t Term) (Resource, error)
}

// InternIRI is a convenience wrapper around Interner.InternTerm.
func InternIRI(in Interner, iri string) (Resource, error) {
	return in.InternTerm(IRI(iri))
}

// Interpretation is an in-memory term <-> resource mapping.
//
// Terms interned separately get distinct resources. Assign associates an
// additional term with an existing resource.
//
// The zero value is not usable; use NewInterpretation.
type Interpretation struct {
	index map[Term]Resource
	terms [][]Term // terms[r-1] lists the terms of resource r in assignment order
}

// NewInterpretation creates an empty interpretation.
func NewInterpretation() *Interpretation {
	return &Interpretation{index: make(map[Term]Resource)}
}

// InternTerm returns the resource of t, allocating one if needed.
// It never fails; the error return satisfies Interner.
func (in *Interpretation) InternTerm(t Term) (Resource, error) {
	if t.IsZero() {
		return NoResource, fmt.Errorf("cannot intern the empty term")
	}
	return in.Intern(t), nil
}

// Intern returns the resource of t, allocating one if needed.
// Interning the zero term returns NoResource.
func (in *Interpretation) Intern(t Term) Resource {
	if t.IsZero() {
		return NoResource
	}
	if r, ok := in.index[t]; ok {
		return r
	}
	in.terms = append(in.terms, []Term{t})
	r := Resource(len(in.terms))
	in.index[t] = r
	return r
}

// IRI interns an IRI term.
func (in *Interpretation) IRI(iri string) Resource {
	return in.Intern(IRI(iri))
}

// Lookup returns the resource of t without allocating.
func (in *Interpretation) Lookup(t Term) (Resource, bool) {
	r, ok := in.index[t]
	return r, ok
}

// Assign makes t an additional representation of r.
// Assigning a term already bound to another resource is an error.
func (in *Interpretation) Assign(t Term, r Resource) error {
	if !in.valid(r) {
		return fmt.Errorf("unknown resource %s", r)
	}
	if t.IsZero() {
		return fmt.Errorf("cannot assign the empty term")
	}
	if existing, ok := in.index[t]; ok {
		if existing == r {
			return nil
		}
		return fmt.Errorf("term %s already interpreted as %s", t, existing)
	}
	in.index[t] = r
	in.terms[r-1] = append(in.terms[r-1], t)
	return nil
}

// Terms returns every term of r in assignment order.
func (in *Interpretation) Terms(r Resource) []Term {
	if !in.valid(r) {
		return nil
	}
	return in.terms[r-1]
}

// Iris implements ReverseIriInterpretation.
func (in *Interpretation) Iris(r Resource) ([]string, error) {
	var iris []string
	for _, t := range in.Terms(r) {
		if t.Kind == TermIRI {
			iris = append(iris, t.Value)
		}
	}
	return iris, nil
}

// Literals implements ReverseLiteralInterpretation.
func (in *Interpretation) Literals(r Resource) ([]Literal, error) {
	var lits []Literal
	for _, t := range in.Terms(r) {
		if lit, ok := t.Literal(); ok {
			lits = append(lits, lit)
		}
	}
	return lits, nil
}

// Len returns the number of allocated resources.
func (in *Interpretation) Len() int {
	return len(in.terms)
}

func (in *Interpretation) valid(r Resource) bool {
	return r != NoResource && int(r) <= len(in.terms)
}
