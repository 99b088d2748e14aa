package rdf

import (
	"fmt"
	"slices"
)

// Quad is a statement over resources. Graph is NoResource for statements
// of the default graph.
type Quad struct {
	Subject   Resource
	Predicate Resource
	Object    Resource
	Graph     Resource
}

// String returns a debug representation of the quad.
func (q Quad) String() string {
	if q.Graph == NoResource {
		return fmt.Sprintf("(%s %s %s)", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("(%s %s %s %s)", q.Subject, q.Predicate, q.Object, q.Graph)
}

// GraphMode selects how a QuadPattern constrains the graph position.
type GraphMode uint8

const (
	// GraphAny matches quads of every graph, default graph included.
	GraphAny GraphMode = iota
	// GraphDefault matches only quads of the default graph.
	GraphDefault
	// GraphNamed matches only quads of GraphMatch.Name.
	GraphNamed
)

// GraphMatch is the graph component of a QuadPattern.
type GraphMatch struct {
	Mode GraphMode
	Name Resource
}

// AnyGraph matches every graph.
func AnyGraph() GraphMatch { return GraphMatch{Mode: GraphAny} }

// InGraph matches exactly the given graph. NoResource selects the
// default graph.
func InGraph(g Resource) GraphMatch {
	if g == NoResource {
		return GraphMatch{Mode: GraphDefault}
	}
	return GraphMatch{Mode: GraphNamed, Name: g}
}

// Matches reports whether a quad graph satisfies the match.
func (m GraphMatch) Matches(g Resource) bool {
	switch m.Mode {
	case GraphDefault:
		return g == NoResource
	case GraphNamed:
		return g == m.Name
	default:
		return true
	}
}

// QuadPattern is a canonical quad pattern over resources: nil components
// match anything.
type QuadPattern struct {
	Subject   *Resource
	Predicate *Resource
	Object    *Resource
	Graph     GraphMatch
}

// Matches reports whether q satisfies the pattern.
func (p QuadPattern) Matches(q Quad) bool {
	if p.Subject != nil && *p.Subject != q.Subject {
		return false
	}
	if p.Predicate != nil && *p.Predicate != q.Predicate {
		return false
	}
	if p.Object != nil && *p.Object != q.Object {
		return false
	}
	return p.Graph.Matches(q.Graph)
}

// QuadIterator yields quads one at a time.
type QuadIterator interface {
	// Next returns the next quad; false when exhausted.
	Next() (Quad, bool)
}

// PatternMatchingDataset is the lookup capability the matching engine
// requires from a dataset.
type PatternMatchingDataset interface {
	QuadPatternMatching(p QuadPattern) (QuadIterator, error)
}

// SliceIterator iterates over a fixed slice of quads.
type SliceIterator struct {
	quads []Quad
	pos   int
}

// NewSliceIterator creates an iterator over quads. The slice is not copied.
func NewSliceIterator(quads []Quad) *SliceIterator {
	return &SliceIterator{quads: quads}
}

// Next implements QuadIterator.
func (it *SliceIterator) Next() (Quad, bool) {
	if it.pos >= len(it.quads) {
		return Quad{}, false
	}
	q := it.quads[it.pos]
	it.pos++
	return q, true
}

// Dataset is an in-memory set of quads indexed by every position.
// Lookups return quads in insertion order.
//
// Dataset is not safe for concurrent mutation; concurrent lookups on a
// dataset that is no longer mutated are safe.
type Dataset struct {
	quads       []Quad
	set         map[Quad]struct{}
	bySubject   map[Resource][]int
	byPredicate map[Resource][]int
	byObject    map[Resource][]int
	byGraph     map[Resource][]int
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		set:         make(map[Quad]struct{}),
		bySubject:   make(map[Resource][]int),
		byPredicate: make(map[Resource][]int),
		byObject:    make(map[Resource][]int),
		byGraph:     make(map[Resource][]int),
	}
}

// Insert adds a quad. It returns false if the quad was already present.
func (d *Dataset) Insert(q Quad) bool {
	if _, ok := d.set[q]; ok {
		return false
	}
	i := len(d.quads)
	d.quads = append(d.quads, q)
	d.set[q] = struct{}{}
	d.bySubject[q.Subject] = append(d.bySubject[q.Subject], i)
	d.byPredicate[q.Predicate] = append(d.byPredicate[q.Predicate], i)
	d.byObject[q.Object] = append(d.byObject[q.Object], i)
	d.byGraph[q.Graph] = append(d.byGraph[q.Graph], i)
	return true
}

// Contains reports whether q is in the dataset.
func (d *Dataset) Contains(q Quad) bool {
	_, ok := d.set[q]
	return ok
}

// Len returns the number of quads.
func (d *Dataset) Len() int {
	return len(d.quads)
}

// Quads returns a copy of every quad in insertion order.
func (d *Dataset) Quads() []Quad {
	return slices.Clone(d.quads)
}

// QuadPatternMatching implements PatternMatchingDataset.
// The smallest applicable index is scanned and filtered by the pattern.
func (d *Dataset) QuadPatternMatching(p QuadPattern) (QuadIterator, error) {
	var candidates []int
	scanAll := true
	consider := func(index map[Resource][]int, r *Resource) {
		if r == nil {
			return
		}
		list := index[*r]
		if scanAll || len(list) < len(candidates) {
			candidates = list
			scanAll = false
		}
	}
	consider(d.bySubject, p.Subject)
	consider(d.byPredicate, p.Predicate)
	consider(d.byObject, p.Object)
	switch p.Graph.Mode {
	case GraphNamed:
		g := p.Graph.Name
		consider(d.byGraph, &g)
	case GraphDefault:
		g := NoResource
		consider(d.byGraph, &g)
	}

	var matches []Quad
	if scanAll {
		for _, q := range d.quads {
			if p.Matches(q) {
				matches = append(matches, q)
			}
		}
	} else {
		for _, i := range candidates {
			if q := d.quads[i]; p.Matches(q) {
				matches = append(matches, q)
			}
		}
	}
	return NewSliceIterator(matches), nil
}
