// Package matching implements the backtracking join of pattern quads
// against a dataset.
//
// The search is a depth-first walk over an explicit stack. Each frame owns
// a cloned MatchingScope, the candidate quads of the pattern it is trying,
// and the position of the remaining patterns. Stack depth is bounded by the
// number of patterns, not by the size of the search tree.
//
// The iterator is lazy: Next resumes the walk until a solution is found or
// the stack is empty.
package matching

import (
	"errors"
	"fmt"

	"github.com/spruceid/treeldr-sub002/internal/pattern"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

var (
	// ErrAmbiguity reports more than one solution where at most one is allowed.
	ErrAmbiguity = errors.New("ambiguous match")

	// ErrEmpty reports no solution where exactly one is required.
	ErrEmpty = errors.New("no match")

	// ErrUnboundVariable reports a solution leaving an introduced variable
	// unbound, i.e. a variable no pattern mentions.
	ErrUnboundVariable = errors.New("unbound variable")
)

// Matching iterates over every substitution satisfying a sequence of
// pattern quads. Use it like sql.Rows:
//
//	m := matching.New(ds, graph, scope, sub, patterns)
//	for m.Next() {
//	    vals := m.Values()
//	}
//	if err := m.Err(); err != nil {
//	    ...
//	}
type Matching struct {
	dataset  rdf.PatternMatchingDataset
	graph    rdf.Resource
	patterns []pattern.Quad
	stack    []state
	current  []value.Value
	err      error
}

// state is one frame of the search stack.
type state struct {
	scope pattern.MatchingScope

	// quad is nil until the frame starts trying patterns[rest].
	quad *quadState

	// rest is the index of the next pattern to solve.
	rest int
}

type quadState struct {
	pattern    pattern.Quad
	candidates rdf.QuadIterator
}

// New creates a matching over patterns. Patterns without a graph component
// match in graph (rdf.NoResource for the default graph). The substitution
// holds the slots of the variables introduced by this step; it is cloned
// and never modified.
func New(
	ds rdf.PatternMatchingDataset,
	graph rdf.Resource,
	scope pattern.Scope,
	sub pattern.Substitution,
	patterns []pattern.Quad,
) *Matching {
	return &Matching{
		dataset:  ds,
		graph:    graph,
		patterns: patterns,
		stack: []state{{
			scope: pattern.NewMatchingScope(scope, sub.Clone()),
		}},
	}
}

// Next advances to the next solution. It returns false when the search is
// exhausted or failed; check Err.
func (m *Matching) Next() bool {
	m.current = nil
	if m.err != nil {
		return false
	}
	for len(m.stack) > 0 {
		top := &m.stack[len(m.stack)-1]

		if top.quad == nil {
			if top.rest >= len(m.patterns) {
				// Every pattern is satisfied: this frame is a solution.
				sub := top.scope.Substitution()
				m.stack = m.stack[:len(m.stack)-1]
				vals, err := sub.IntoTotal()
				if err != nil {
					m.err = fmt.Errorf("%w: %v", ErrUnboundVariable, err)
					m.stack = nil
					return false
				}
				m.current = vals
				return true
			}

			pq := m.patterns[top.rest]
			candidates, err := m.dataset.QuadPatternMatching(top.scope.Resolve(pq, m.graph))
			if err != nil {
				m.err = fmt.Errorf("lookup %s: %w", pq, err)
				m.stack = nil
				return false
			}
			top.quad = &quadState{pattern: pq, candidates: candidates}
			continue
		}

		q, ok := top.quad.candidates.Next()
		if !ok {
			// Candidates exhausted: backtrack.
			m.stack = m.stack[:len(m.stack)-1]
			continue
		}
		if next, ok := top.scope.WithQuad(top.quad.pattern, q, m.graph); ok {
			m.stack = append(m.stack, state{scope: next, rest: top.rest + 1})
		}
	}
	return false
}

// Values returns the values of the introduced variables for the current
// solution, in slot order.
func (m *Matching) Values() []value.Value {
	return m.current
}

// Err returns the error that stopped the iteration, if any.
func (m *Matching) Err() error {
	return m.err
}

// All collects every remaining solution.
func (m *Matching) All() ([][]value.Value, error) {
	var all [][]value.Value
	for m.Next() {
		all = append(all, m.Values())
	}
	return all, m.Err()
}

// Optional consumes at most two solutions. found is false if there is
// none; ErrAmbiguity is returned if there is more than one.
func (m *Matching) Optional() (vals []value.Value, found bool, err error) {
	if !m.Next() {
		return nil, false, m.Err()
	}
	first := m.Values()
	if m.Next() {
		return nil, false, ErrAmbiguity
	}
	if err := m.Err(); err != nil {
		return nil, false, err
	}
	return first, true, nil
}

// Required is Optional but fails with ErrEmpty if there is no solution.
func (m *Matching) Required() ([]value.Value, error) {
	vals, found, err := m.Optional()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrEmpty
	}
	return vals, nil
}
