package pattern

import (
	"fmt"
	"slices"

	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// Scope is the read-only sequence of values bound by enclosing steps.
type Scope []value.Value

// ScopeFromResources creates a scope holding the given resources.
func ScopeFromResources(rs []rdf.Resource) Scope {
	return Scope(value.Resources(rs))
}

// Get implements Getter. Out-of-range indices yield nil.
func (s Scope) Get(index uint32) value.Value {
	if int(index) < len(s) {
		return s[index]
	}
	return nil
}

// Extend returns a new scope with vals appended. s is never modified.
func (s Scope) Extend(vals ...value.Value) Scope {
	out := make(Scope, 0, len(s)+len(vals))
	out = append(out, s...)
	return append(out, vals...)
}

// Substitution holds the slots of the variables introduced by the current
// step. A nil slot is unbound.
type Substitution struct {
	slots []value.Value
}

// NewSubstitution creates a substitution with n unbound slots.
func NewSubstitution(n uint32) Substitution {
	return Substitution{slots: make([]value.Value, n)}
}

// Len returns the number of slots.
func (s *Substitution) Len() int {
	return len(s.slots)
}

// Intro appends count unbound slots and returns the index of the first one,
// relative to the substitution.
func (s *Substitution) Intro(count uint32) uint32 {
	start := uint32(len(s.slots))
	for i := uint32(0); i < count; i++ {
		s.slots = append(s.slots, nil)
	}
	return start
}

// Push appends a bound slot and returns its index.
func (s *Substitution) Push(v value.Value) uint32 {
	s.slots = append(s.slots, v)
	return uint32(len(s.slots) - 1)
}

// Get returns the value of slot i, or nil if unbound or out of range.
func (s *Substitution) Get(i uint32) value.Value {
	if int(i) < len(s.slots) {
		return s.slots[i]
	}
	return nil
}

// Set binds slot i. The first binding wins: setting a slot already bound
// to a different value fails and leaves the slot unchanged.
func (s *Substitution) Set(i uint32, v value.Value) bool {
	if int(i) >= len(s.slots) {
		return false
	}
	if current := s.slots[i]; current != nil {
		return value.Equal(current, v)
	}
	s.slots[i] = v
	return true
}

// Clone returns an independent copy.
func (s Substitution) Clone() Substitution {
	return Substitution{slots: slices.Clone(s.slots)}
}

// IntoTotal returns the bound values. It fails if any slot is unbound.
func (s Substitution) IntoTotal() ([]value.Value, error) {
	for i, v := range s.slots {
		if v == nil {
			return nil, fmt.Errorf("substitution slot %d is unbound", i)
		}
	}
	vals := make([]value.Value, len(s.slots))
	copy(vals, s.slots)
	return vals, nil
}

// MatchingScope is the pair (Scope, Substitution) used during one matching
// attempt. It is cloned whenever the search branches.
type MatchingScope struct {
	scope Scope
	sub   Substitution
}

// NewMatchingScope pairs an inherited scope with the current substitution.
func NewMatchingScope(scope Scope, sub Substitution) MatchingScope {
	return MatchingScope{scope: scope, sub: sub}
}

// Scope returns the inherited scope.
func (m MatchingScope) Scope() Scope { return m.scope }

// Substitution returns the current substitution.
func (m MatchingScope) Substitution() Substitution { return m.sub }

// Get implements Getter: scope indices come first, then substitution slots.
func (m MatchingScope) Get(index uint32) value.Value {
	if int(index) < len(m.scope) {
		return m.scope[index]
	}
	return m.sub.Get(index - uint32(len(m.scope)))
}

// Clone returns an independent copy. The scope is shared since it is
// read-only.
func (m MatchingScope) Clone() MatchingScope {
	return MatchingScope{scope: m.scope, sub: m.sub.Clone()}
}

// AssignWith binds variable index to f(). Within the scope it succeeds iff
// the scope value equals f(). For substitution slots it binds an unbound
// slot, or succeeds iff the bound value equals f().
//
// On mismatch the rejected value is returned with ok false. This is a
// branch failure signal, not an error.
func (m *MatchingScope) AssignWith(index uint32, f func() value.Value) (rejected value.Value, ok bool) {
	v := f()
	if int(index) < len(m.scope) {
		if value.Equal(m.scope[index], v) {
			return nil, true
		}
		return v, false
	}
	i := index - uint32(len(m.scope))
	if int(i) >= m.sub.Len() {
		return v, false
	}
	if m.sub.Set(i, v) {
		return nil, true
	}
	return v, false
}

// WithQuad extends a clone of m so that pq matches q. The current graph
// is used when pq has no graph pattern. It returns false on the first
// mismatch; m itself is never modified.
func (m MatchingScope) WithQuad(pq Quad, q rdf.Quad, currentGraph rdf.Resource) (MatchingScope, bool) {
	next := m.Clone()
	if !next.unify(pq.Subject, q.Subject) ||
		!next.unify(pq.Predicate, q.Predicate) ||
		!next.unify(pq.Object, q.Object) {
		return MatchingScope{}, false
	}
	if pq.Graph == nil {
		if q.Graph != currentGraph {
			return MatchingScope{}, false
		}
		return next, true
	}
	if q.Graph == rdf.NoResource {
		// A variable or resource pattern never denotes the default graph.
		return MatchingScope{}, false
	}
	if !next.unify(*pq.Graph, q.Graph) {
		return MatchingScope{}, false
	}
	return next, true
}

func (m *MatchingScope) unify(p Pattern, r rdf.Resource) bool {
	if fixed, ok := p.AsResource(); ok {
		return fixed == r
	}
	_, ok := m.AssignWith(p.index, func() value.Value { return value.Of(r) })
	return ok
}

// Resolve turns the resource components of pq, and the variables already
// bound to resources, into a dataset lookup pattern.
func (m MatchingScope) Resolve(pq Quad, currentGraph rdf.Resource) rdf.QuadPattern {
	qp := rdf.QuadPattern{
		Subject:   m.resolve(pq.Subject),
		Predicate: m.resolve(pq.Predicate),
		Object:    m.resolve(pq.Object),
	}
	switch {
	case pq.Graph == nil:
		qp.Graph = rdf.InGraph(currentGraph)
	default:
		if g := m.resolve(*pq.Graph); g != nil {
			qp.Graph = rdf.InGraph(*g)
		} else {
			qp.Graph = rdf.AnyGraph()
		}
	}
	return qp
}

func (m MatchingScope) resolve(p Pattern) *rdf.Resource {
	if r, ok := p.AsResource(); ok {
		return &r
	}
	if r, ok := value.IntoResource(m.Get(p.index)); ok {
		return &r
	}
	return nil
}
