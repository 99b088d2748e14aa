// Package hydrate implements the layout interpreter: it builds a typed tree
// value from an RDF dataset by following a layout.
//
// Hydration is read-only and synchronous. The dataset, the interpretation
// and the layout registry are never modified, so a Hydrator may be shared
// by concurrent calls as long as its collaborators allow concurrent reads.
//
// Recursion depth equals layout nesting depth. Lists are walked with loops;
// only the hydration of each item recurses.
package hydrate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/matching"
	"github.com/spruceid/treeldr-sub002/internal/pattern"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/typed"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// Hydrator hydrates layouts against one dataset and interpretation.
type Hydrator struct {
	interp  rdf.ReverseInterpretation
	layouts layout.Layouts
	dataset rdf.PatternMatchingDataset
	logger  *slog.Logger

	// maxListLength bounds ordered list traversal. Zero means unbounded.
	maxListLength int

	// maxDepth bounds layout nesting, which recursive layouts make
	// data-dependent.
	maxDepth int
}

// DefaultMaxDepth is the default maximum layout nesting depth.
const DefaultMaxDepth = 512

// Option configures a Hydrator.
type Option func(*Hydrator)

// WithLogger sets the logger receiving debug traces. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hydrator) {
		h.logger = logger
	}
}

// WithMaxListLength bounds the number of nodes visited in an ordered list.
// Exceeding it fails with LIST_TOO_LONG. Default: 0 (unbounded; cycles are
// still detected).
func WithMaxListLength(n int) Option {
	return func(h *Hydrator) {
		h.maxListLength = n
	}
}

// WithMaxDepth bounds the nesting depth of sub-layout hydration. Exceeding
// it fails with DEPTH_EXCEEDED. Default: DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(h *Hydrator) {
		h.maxDepth = n
	}
}

// New creates a Hydrator.
func New(
	interp rdf.ReverseInterpretation,
	layouts layout.Layouts,
	dataset rdf.PatternMatchingDataset,
	opts ...Option,
) *Hydrator {
	h := &Hydrator{
		interp:   interp,
		layouts:  layouts,
		dataset:  dataset,
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HydrateWith is a one-shot shorthand for New(...).Hydrate(...).
func HydrateWith(
	interp rdf.ReverseInterpretation,
	layouts layout.Layouts,
	dataset rdf.PatternMatchingDataset,
	graph rdf.Resource,
	ref layout.Ref,
	inputs []rdf.Resource,
	opts ...Option,
) (typed.Value, error) {
	return New(interp, layouts, dataset, opts...).Hydrate(graph, ref, inputs)
}

// Hydrate builds the value described by the layout ref from the given
// inputs. Patterns without an explicit graph match in graph
// (rdf.NoResource for the default graph).
func (h *Hydrator) Hydrate(graph rdf.Resource, ref layout.Ref, inputs []rdf.Resource) (typed.Value, error) {
	return h.hydrate(graph, ref, inputs, 0)
}

func (h *Hydrator) hydrate(graph rdf.Resource, ref layout.Ref, inputs []rdf.Resource, depth int) (typed.Value, error) {
	if depth > h.maxDepth {
		return nil, newError(ErrCodeDepthExceeded, ref, "layout nesting exceeds %d", h.maxDepth)
	}
	l, ok := h.layouts.Get(ref)
	if !ok {
		return nil, newError(ErrCodeUnknownLayout, ref, "layout is not registered")
	}
	if expected, fixed := layout.InputCount(l); fixed && int(expected) != len(inputs) {
		return nil, &Error{
			Code:     ErrCodeInvalidInputCount,
			Layout:   ref,
			Message:  fmt.Sprintf("expected %d inputs, found %d", expected, len(inputs)),
			Expected: int(expected),
			Found:    len(inputs),
		}
	}

	h.logger.Debug("hydrating layout",
		"layout", ref,
		"kind", l.Kind(),
		"inputs", len(inputs),
		"graph", graph,
		"depth", depth)

	c := call{ref: ref, graph: graph, depth: depth}
	scope := pattern.ScopeFromResources(inputs)

	switch l := l.(type) {
	case *layout.Never:
		return nil, newError(ErrCodeIncompatibleLayout, ref, "never layout has no value")
	case *layout.Always:
		return typed.Always{}, nil
	case *layout.Unit:
		if _, err := h.solve(c, scope, l.Header, "unit dataset"); err != nil {
			return nil, err
		}
		return typed.Unit{Const: l.Const, Layout: ref}, nil
	case *layout.Boolean:
		return h.hydrateData(c, scope, l.Data, parseBoolean)
	case *layout.Number:
		return h.hydrateData(c, scope, l.Data, parseNumber)
	case *layout.ByteString:
		return h.hydrateData(c, scope, l.Data, parseBytes)
	case *layout.TextString:
		return h.hydrateData(c, scope, l.Data, parseText)
	case *layout.ID:
		return h.hydrateID(c, scope, l)
	case *layout.Product:
		return h.hydrateProduct(c, scope, l)
	case *layout.Sum:
		return h.hydrateSum(c, scope, l)
	case *layout.UnorderedList:
		return h.hydrateUnordered(c, scope, l)
	case *layout.OrderedList:
		return h.hydrateOrdered(c, scope, l)
	case *layout.SizedList:
		return h.hydrateSized(c, scope, l)
	default:
		return nil, newError(ErrCodeIncompatibleLayout, ref, "unsupported layout %T", l)
	}
}

// call identifies one layout hydration step.
type call struct {
	ref   layout.Ref
	graph rdf.Resource
	depth int
}

// solve matches a layout's own dataset, which must have exactly one
// solution, and returns the scope extended with the introduced variables.
func (h *Hydrator) solve(c call, scope pattern.Scope, hdr layout.Header, what string) (pattern.Scope, error) {
	return h.required(c, scope, hdr.Intro, hdr.Dataset, what)
}

func (h *Hydrator) required(c call, scope pattern.Scope, intro uint32, dataset []pattern.Quad, what string) (pattern.Scope, error) {
	vals, err := matching.New(h.dataset, c.graph, scope, pattern.NewSubstitution(intro), dataset).Required()
	if err != nil {
		return nil, fromMatching(err, c.ref, what)
	}
	return scope.Extend(vals...), nil
}

// optional matches dataset with at most one solution. found is false if
// there is none.
func (h *Hydrator) optional(c call, scope pattern.Scope, intro uint32, dataset []pattern.Quad, what string) (ext pattern.Scope, found bool, err error) {
	vals, found, err := matching.New(h.dataset, c.graph, scope, pattern.NewSubstitution(intro), dataset).Optional()
	if err != nil {
		return nil, false, fromMatching(err, c.ref, what)
	}
	if !found {
		return nil, false, nil
	}
	return scope.Extend(vals...), true, nil
}

// hydrateFormat hydrates a child value. Inputs and graph are evaluated in
// the parent scope.
func (h *Hydrator) hydrateFormat(c call, scope pattern.Scope, f layout.ValueFormat) (typed.Value, error) {
	inputs, err := f.Inputs(scope)
	if err != nil {
		return nil, &Error{Code: ErrCodeIncompatibleLayout, Layout: c.ref, Message: "cannot evaluate child inputs", Err: err}
	}
	childGraph, err := f.SelectGraph(scope, c.graph)
	if err != nil {
		return nil, &Error{Code: ErrCodeIncompatibleLayout, Layout: c.ref, Message: "cannot evaluate child graph", Err: err}
	}
	return h.hydrate(childGraph, f.Layout, inputs, c.depth+1)
}

func (h *Hydrator) hydrateID(c call, scope pattern.Scope, l *layout.ID) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "id dataset")
	if err != nil {
		return nil, err
	}
	r, err := l.Resource.ApplyResource(scope)
	if err != nil {
		return nil, &Error{Code: ErrCodeIncompatibleLayout, Layout: c.ref, Message: "cannot evaluate id resource", Err: err}
	}
	iris, err := h.interp.Iris(r)
	if err != nil {
		return nil, &Error{Code: ErrCodeDataset, Layout: c.ref, Message: "iri lookup failed", Err: err}
	}
	switch len(iris) {
	case 0:
		return nil, newError(ErrCodeNoMatchingLiteral, c.ref, "resource %s has no iri", r)
	case 1:
		return typed.ID{IRI: iris[0], Layout: c.ref}, nil
	default:
		return nil, newError(ErrCodeDataAmbiguity, c.ref, "resource %s has %d iris", r, len(iris))
	}
}

func (h *Hydrator) hydrateProduct(c call, scope pattern.Scope, l *layout.Product) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "record dataset")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(l.Fields))
	for name := range l.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := make(map[string]typed.Value, len(names))
	for _, name := range names {
		f := l.Fields[name]
		fieldScope, found, err := h.optional(c, scope, f.Intro, f.Dataset, "field "+name)
		if err != nil {
			var he *Error
			if errors.As(err, &he) {
				he.Field = name
			}
			return nil, err
		}
		if !found {
			if f.Required {
				return nil, &Error{Code: ErrCodeMissingData, Layout: c.ref, Field: name, Message: "required field has no solution"}
			}
			continue
		}
		v, err := h.hydrateFormat(c, fieldScope, f.Value)
		if err != nil {
			return nil, err
		}
		fields[name] = v
	}
	return typed.Record{Fields: fields, Layout: c.ref}, nil
}

func (h *Hydrator) hydrateSum(c call, scope pattern.Scope, l *layout.Sum) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "sum dataset")
	if err != nil {
		return nil, err
	}

	var (
		winner   typed.Value
		index    = -1
		matched  []string
		failures []error
	)
	for i, v := range l.Variants {
		variantScope, found, err := h.optional(c, scope, v.Intro, v.Dataset, "variant "+v.Name)
		if err != nil {
			if !IsDataAmbiguity(err) {
				return nil, err
			}
			failures = append(failures, fmt.Errorf("variant %d (%s): %w", i, v.Name, err))
			continue
		}
		if !found {
			continue
		}
		tv, err := h.hydrateFormat(c, variantScope, v.Value)
		if err != nil {
			failures = append(failures, fmt.Errorf("variant %d (%s): %w", i, v.Name, err))
			continue
		}
		winner, index = tv, i
		matched = append(matched, v.Name)
	}

	switch len(matched) {
	case 0:
		return nil, &Error{
			Code:    ErrCodeNoMatchingVariant,
			Layout:  c.ref,
			Message: fmt.Sprintf("none of %d variants matched", len(l.Variants)),
			Causes:  failures,
		}
	case 1:
		h.logger.Debug("selected variant", "layout", c.ref, "index", index, "name", matched[0])
		return typed.Variant{Value: winner, Layout: c.ref, Index: index}, nil
	default:
		return nil, newError(ErrCodeDataAmbiguity, c.ref, "variants %v all matched", matched)
	}
}

func (h *Hydrator) hydrateUnordered(c call, scope pattern.Scope, l *layout.UnorderedList) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "set dataset")
	if err != nil {
		return nil, err
	}

	var items []typed.Value
	m := matching.New(h.dataset, c.graph, scope, pattern.NewSubstitution(l.Item.Intro), l.Item.Dataset)
	for m.Next() {
		v, err := h.hydrateFormat(c, scope.Extend(m.Values()...), l.Item.Value)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := m.Err(); err != nil {
		return nil, fromMatching(err, c.ref, "set item")
	}

	typed.Sort(items)
	h.logger.Debug("hydrated set", "layout", c.ref, "items", len(items))
	return typed.List{Items: items, Layout: c.ref}, nil
}

func (h *Hydrator) hydrateOrdered(c call, scope pattern.Scope, l *layout.OrderedList) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "list dataset")
	if err != nil {
		return nil, err
	}
	head, err := l.Head.ApplyResource(scope)
	if err != nil {
		return nil, &Error{Code: ErrCodeIncompatibleLayout, Layout: c.ref, Message: "cannot evaluate list head", Err: err}
	}
	tail, err := l.Tail.ApplyResource(scope)
	if err != nil {
		return nil, &Error{Code: ErrCodeIncompatibleLayout, Layout: c.ref, Message: "cannot evaluate list tail", Err: err}
	}

	var items []typed.Value
	visited := make(map[rdf.Resource]struct{})
	for head != tail {
		if _, seen := visited[head]; seen {
			return nil, newError(ErrCodeCyclicList, c.ref, "node %s visited twice after %d items", head, len(items))
		}
		if h.maxListLength > 0 && len(items) >= h.maxListLength {
			return nil, newError(ErrCodeListTooLong, c.ref, "list exceeds %d items", h.maxListLength)
		}
		visited[head] = struct{}{}

		// The node scope binds the current cell, then the rest pointer and
		// the node's own variables.
		nodeScope, err := h.required(c, scope.Extend(value.Of(head)), 1+l.Node.Intro, l.Node.Dataset, "list node")
		if err != nil {
			return nil, err
		}
		v, err := h.hydrateFormat(c, nodeScope, l.Node.Value)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		rest, ok := value.IntoResource(nodeScope[len(scope)+1])
		if !ok {
			return nil, newError(ErrCodeIncompatibleLayout, c.ref, "list rest is not a resource")
		}
		head = rest
	}

	h.logger.Debug("hydrated list", "layout", c.ref, "items", len(items))
	return typed.List{Items: items, Layout: c.ref}, nil
}

func (h *Hydrator) hydrateSized(c call, scope pattern.Scope, l *layout.SizedList) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "tuple dataset")
	if err != nil {
		return nil, err
	}
	items := make([]typed.Value, len(l.Items))
	for i, item := range l.Items {
		itemScope, err := h.required(c, scope, item.Intro, item.Dataset, fmt.Sprintf("tuple item %d", i))
		if err != nil {
			return nil, err
		}
		v, err := h.hydrateFormat(c, itemScope, item.Value)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return typed.List{Items: items, Layout: c.ref}, nil
}
