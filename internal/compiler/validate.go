package compiler

import (
	"fmt"
	"slices"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/pattern"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownLayoutRef   = "E201" // value format references an unregistered layout
	ErrVariableOutOfScope = "E202" // pattern variable beyond the enclosing scope
	ErrInputArity         = "E203" // value format input count differs from the layout's
	ErrEmptySum           = "E204" // sum without variants
	ErrUnboundIntro       = "E205" // introduced variable never bound by its dataset
)

// ValidationError represents a layout validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every layout of reg against the variable binding rules.
// Returns all errors found (does not fail-fast), in registry order.
func Validate(reg *layout.Registry) []ValidationError {
	v := &validator{reg: reg}
	for _, ref := range reg.Refs() {
		l, _ := reg.Get(ref)
		v.validateLayout(fmt.Sprintf("layouts[%q]", reg.Name(ref)), l)
	}
	return v.errs
}

type validator struct {
	reg  *layout.Registry
	errs []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) validateLayout(path string, l layout.Layout) {
	hdr, ok := layout.HeaderOf(l)
	if !ok {
		return
	}
	// Variables below scope are the inputs followed by the layout's own
	// introduced variables.
	scope := hdr.Input + hdr.Intro
	v.checkDataset(path+".dataset", hdr.Dataset, scope)
	v.checkIntro(path, hdr.Dataset, hdr.Input, scope)

	switch l := l.(type) {
	case *layout.Boolean:
		v.checkPattern(path+".resource", l.Resource, scope)
	case *layout.Number:
		v.checkPattern(path+".resource", l.Resource, scope)
	case *layout.ByteString:
		v.checkPattern(path+".resource", l.Resource, scope)
	case *layout.TextString:
		v.checkPattern(path+".resource", l.Resource, scope)
	case *layout.ID:
		v.checkPattern(path+".resource", l.Resource, scope)

	case *layout.Product:
		names := make([]string, 0, len(l.Fields))
		for name := range l.Fields {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			f := l.Fields[name]
			v.checkChild(path+".fields."+name, scope, f.Intro, f.Dataset, f.Value)
		}

	case *layout.Sum:
		if len(l.Variants) == 0 {
			v.add(ErrEmptySum, path+".variants", "sum has no variants and can never be hydrated")
		}
		for i, variant := range l.Variants {
			v.checkChild(fmt.Sprintf("%s.variants[%d]", path, i), scope, variant.Intro, variant.Dataset, variant.Value)
		}

	case *layout.UnorderedList:
		v.checkChild(path+".item", scope, l.Item.Intro, l.Item.Dataset, l.Item.Value)

	case *layout.SizedList:
		for i, item := range l.Items {
			v.checkChild(fmt.Sprintf("%s.items[%d]", path, i), scope, item.Intro, item.Dataset, item.Value)
		}

	case *layout.OrderedList:
		v.checkPattern(path+".head", l.Head, scope)
		v.checkPattern(path+".tail", l.Tail, scope)

		// Node scope: the cell at scope, the rest at scope+1, then the
		// node's own variables. The cell is bound before matching.
		nodePath := path + ".node"
		bound := scope + 2 + l.Node.Intro
		v.checkDataset(nodePath+".dataset", l.Node.Dataset, bound)
		v.checkIntro(nodePath, l.Node.Dataset, scope+1, bound)
		v.checkFormat(nodePath+".value", l.Node.Value, bound)
	}
}

// checkChild validates a field, variant or item whose intro variables
// follow the enclosing scope.
func (v *validator) checkChild(path string, scope, intro uint32, dataset []pattern.Quad, f layout.ValueFormat) {
	bound := scope + intro
	v.checkDataset(path+".dataset", dataset, bound)
	v.checkIntro(path, dataset, scope, bound)
	v.checkFormat(path+".value", f, bound)
}

func (v *validator) checkFormat(path string, f layout.ValueFormat, bound uint32) {
	for i, p := range f.Input {
		v.checkPattern(fmt.Sprintf("%s.input[%d]", path, i), p, bound)
	}
	if f.Graph.Mode == layout.GraphPattern {
		v.checkPattern(path+".graph", f.Graph.Pattern, bound)
	}

	target, ok := v.reg.Get(f.Layout)
	if !ok {
		v.add(ErrUnknownLayoutRef, path+".layout", "layout %s is not registered", v.reg.Name(f.Layout))
		return
	}
	if n, fixed := layout.InputCount(target); fixed && int(n) != len(f.Input) {
		v.add(ErrInputArity, path+".input", "layout %s expects %d inputs, got %d", v.reg.Name(f.Layout), n, len(f.Input))
	}
}

func (v *validator) checkDataset(path string, dataset []pattern.Quad, bound uint32) {
	for i, q := range dataset {
		q.Variables(func(index uint32) {
			if index >= bound {
				v.add(ErrVariableOutOfScope, fmt.Sprintf("%s[%d]", path, i), "variable ?%d is out of scope (%d variables)", index, bound)
			}
		})
	}
}

func (v *validator) checkPattern(path string, p pattern.Pattern, bound uint32) {
	if i, ok := p.Index(); ok && i >= bound {
		v.add(ErrVariableOutOfScope, path, "variable ?%d is out of scope (%d variables)", i, bound)
	}
}

// checkIntro reports variables in [from, to) never mentioned by dataset.
func (v *validator) checkIntro(path string, dataset []pattern.Quad, from, to uint32) {
	used := make(map[uint32]bool)
	for _, q := range dataset {
		q.Variables(func(index uint32) { used[index] = true })
	}
	for i := from; i < to; i++ {
		if !used[i] {
			v.add(ErrUnboundIntro, path+".intro", "introduced variable ?%d is not bound by the dataset", i)
		}
	}
}
