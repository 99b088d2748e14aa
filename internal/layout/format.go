package layout

import (
	"github.com/spruceid/treeldr-sub002/internal/pattern"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
)

// GraphMode selects the graph a sub-layout is hydrated in.
type GraphMode uint8

const (
	// GraphInherit keeps the current graph.
	GraphInherit GraphMode = iota
	// GraphDefault switches to the default graph.
	GraphDefault
	// GraphPattern switches to the graph designated by a pattern.
	GraphPattern
)

// GraphFormat is the graph component of a ValueFormat.
type GraphFormat struct {
	Mode    GraphMode
	Pattern pattern.Pattern
}

// ValueFormat describes how to hydrate a child value: which layout, which
// inputs (evaluated in the parent scope) and in which graph.
type ValueFormat struct {
	Layout Ref
	Input  []pattern.Pattern
	Graph  GraphFormat
}

// Inputs evaluates the input patterns. Every pattern must evaluate to a
// resource.
func (f ValueFormat) Inputs(s pattern.Getter) ([]rdf.Resource, error) {
	inputs := make([]rdf.Resource, len(f.Input))
	for i, p := range f.Input {
		r, err := p.ApplyResource(s)
		if err != nil {
			return nil, err
		}
		inputs[i] = r
	}
	return inputs, nil
}

// SelectGraph returns the graph to hydrate the child in.
func (f ValueFormat) SelectGraph(s pattern.Getter, current rdf.Resource) (rdf.Resource, error) {
	switch f.Graph.Mode {
	case GraphDefault:
		return rdf.NoResource, nil
	case GraphPattern:
		return f.Graph.Pattern.ApplyResource(s)
	default:
		return current, nil
	}
}
