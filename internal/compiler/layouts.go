package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/pattern"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// CompileLayouts decodes the "layouts" struct of v into a registry.
// Layout IRIs and pattern resources are interned with in, so the same
// interner must later back the dataset being hydrated.
//
// The expected shape is:
//
//	layouts: "https://example.org/layouts/Person": {
//		kind:  "record"
//		input: 1
//		dataset: [["?0", "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", "https://example.org/Person"]]
//		fields: name: {
//			intro:    1
//			dataset:  [["?0", "https://example.org/name", "?1"]]
//			value:    {layout: "https://example.org/layouts/Text", input: ["?1"]}
//			required: true
//		}
//	}
//
// Patterns are "?N" variables, "_:label" blank nodes, absolute IRIs, or
// {literal, datatype?, language?} structs.
func CompileLayouts(v cue.Value, in rdf.Interner) (*layout.Registry, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	layoutsVal := v.LookupPath(cue.ParsePath("layouts"))
	if !layoutsVal.Exists() {
		return nil, &CompileError{
			Field:   "layouts",
			Message: "layouts is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := layoutsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	c := &layoutCompiler{in: in}
	reg := layout.NewRegistry()
	for iter.Next() {
		iri := iter.Label()
		path := fmt.Sprintf("layouts[%q]", iri)

		ref, err := c.ref(iri, path, iter.Value().Pos())
		if err != nil {
			return nil, err
		}
		l, err := c.compileLayout(iter.Value(), path)
		if err != nil {
			return nil, err
		}
		if err := reg.Insert(ref, l); err != nil {
			return nil, &CompileError{Field: path, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		reg.SetName(ref, iri)
	}

	return reg, nil
}

type layoutCompiler struct {
	in rdf.Interner
}

func (c *layoutCompiler) ref(iri, path string, pos token.Pos) (layout.Ref, error) {
	r, err := rdf.InternIRI(c.in, iri)
	if err != nil {
		return 0, &CompileError{Field: path, Message: err.Error(), Pos: pos}
	}
	return layout.Ref(r), nil
}

// compileLayout decodes one layout definition.
func (c *layoutCompiler) compileLayout(v cue.Value, path string) (layout.Layout, error) {
	kindName, err := requiredString(v, "kind", path)
	if err != nil {
		return nil, err
	}
	kind, ok := layout.ParseKind(kindName)
	if !ok {
		return nil, &CompileError{
			Field:   path + ".kind",
			Message: fmt.Sprintf("unknown layout kind %q", kindName),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}

	switch kind {
	case layout.KindNever:
		return &layout.Never{}, nil
	case layout.KindAlways:
		return &layout.Always{}, nil
	}

	hdr, err := c.header(v, path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case layout.KindUnit:
		l := &layout.Unit{Header: hdr}
		if cv := v.LookupPath(cue.ParsePath("const")); cv.Exists() {
			l.Const, err = constValue(cv, path+".const")
			if err != nil {
				return nil, err
			}
		}
		return l, nil

	case layout.KindBoolean, layout.KindNumber, layout.KindByteString, layout.KindTextString:
		data, err := c.data(v, path, hdr, defaultDatatypes[kind])
		if err != nil {
			return nil, err
		}
		switch kind {
		case layout.KindBoolean:
			return &layout.Boolean{Data: data}, nil
		case layout.KindNumber:
			return &layout.Number{Data: data}, nil
		case layout.KindByteString:
			return &layout.ByteString{Data: data}, nil
		default:
			return &layout.TextString{Data: data}, nil
		}

	case layout.KindID:
		r, err := c.requiredPattern(v, "resource", path)
		if err != nil {
			return nil, err
		}
		return &layout.ID{Header: hdr, Resource: r}, nil

	case layout.KindProduct:
		return c.product(v, path, hdr)

	case layout.KindSum:
		return c.sum(v, path, hdr)

	case layout.KindUnorderedList:
		itemVal := v.LookupPath(cue.ParsePath("item"))
		if !itemVal.Exists() {
			return nil, &CompileError{Field: path + ".item", Message: "item is required", Pos: v.Pos()}
		}
		item, err := c.item(itemVal, path+".item")
		if err != nil {
			return nil, err
		}
		return &layout.UnorderedList{Header: hdr, Item: item}, nil

	case layout.KindOrderedList:
		return c.orderedList(v, path, hdr)

	case layout.KindSizedList:
		return c.sizedList(v, path, hdr)
	}

	return nil, &CompileError{Field: path + ".kind", Message: fmt.Sprintf("unsupported layout kind %q", kindName), Pos: v.Pos()}
}

// defaultDatatypes is used when a data literal layout omits its datatype.
var defaultDatatypes = map[layout.Kind]string{
	layout.KindBoolean:    rdf.XSDBoolean,
	layout.KindNumber:     rdf.XSDDecimal,
	layout.KindByteString: rdf.XSDHexBinary,
	layout.KindTextString: rdf.XSDString,
}

func (c *layoutCompiler) header(v cue.Value, path string) (layout.Header, error) {
	var (
		hdr layout.Header
		err error
	)
	if hdr.Input, err = optionalUint32(v, "input", path); err != nil {
		return hdr, err
	}
	if hdr.Intro, err = optionalUint32(v, "intro", path); err != nil {
		return hdr, err
	}
	if hdr.Dataset, err = c.dataset(v, path); err != nil {
		return hdr, err
	}
	return hdr, nil
}

func (c *layoutCompiler) data(v cue.Value, path string, hdr layout.Header, defaultDatatype string) (layout.Data, error) {
	r, err := c.requiredPattern(v, "resource", path)
	if err != nil {
		return layout.Data{}, err
	}
	datatype := defaultDatatype
	if dv := v.LookupPath(cue.ParsePath("datatype")); dv.Exists() {
		datatype, err = dv.String()
		if err != nil {
			return layout.Data{}, formatCUEError(err)
		}
	}
	dt, err := rdf.InternIRI(c.in, datatype)
	if err != nil {
		return layout.Data{}, &CompileError{Field: path + ".datatype", Message: err.Error(), Pos: v.Pos()}
	}
	return layout.Data{Header: hdr, Resource: r, Datatype: dt}, nil
}

func (c *layoutCompiler) product(v cue.Value, path string, hdr layout.Header) (layout.Layout, error) {
	l := &layout.Product{Header: hdr, Fields: make(map[string]layout.Field)}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return l, nil
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		fieldPath := path + ".fields." + name
		fv := iter.Value()

		intro, dataset, format, err := c.child(fv, fieldPath)
		if err != nil {
			return nil, err
		}
		field := layout.Field{Intro: intro, Dataset: dataset, Value: format}
		if rv := fv.LookupPath(cue.ParsePath("required")); rv.Exists() {
			field.Required, err = rv.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}
		l.Fields[name] = field
	}
	return l, nil
}

func (c *layoutCompiler) sum(v cue.Value, path string, hdr layout.Header) (layout.Layout, error) {
	l := &layout.Sum{Header: hdr}

	variantsVal := v.LookupPath(cue.ParsePath("variants"))
	if !variantsVal.Exists() {
		return l, nil
	}
	iter, err := variantsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		variantPath := fmt.Sprintf("%s.variants[%d]", path, i)
		vv := iter.Value()

		name, err := requiredString(vv, "name", variantPath)
		if err != nil {
			return nil, err
		}
		intro, dataset, format, err := c.child(vv, variantPath)
		if err != nil {
			return nil, err
		}
		l.Variants = append(l.Variants, layout.Variant{Name: name, Intro: intro, Dataset: dataset, Value: format})
	}
	return l, nil
}

func (c *layoutCompiler) item(v cue.Value, path string) (layout.Item, error) {
	intro, dataset, format, err := c.child(v, path)
	if err != nil {
		return layout.Item{}, err
	}
	return layout.Item{Intro: intro, Dataset: dataset, Value: format}, nil
}

func (c *layoutCompiler) orderedList(v cue.Value, path string, hdr layout.Header) (layout.Layout, error) {
	head, err := c.requiredPattern(v, "head", path)
	if err != nil {
		return nil, err
	}
	tail, err := c.requiredPattern(v, "tail", path)
	if err != nil {
		return nil, err
	}
	nodeVal := v.LookupPath(cue.ParsePath("node"))
	if !nodeVal.Exists() {
		return nil, &CompileError{Field: path + ".node", Message: "node is required", Pos: v.Pos()}
	}
	intro, dataset, format, err := c.child(nodeVal, path+".node")
	if err != nil {
		return nil, err
	}
	return &layout.OrderedList{
		Header: hdr,
		Head:   head,
		Tail:   tail,
		Node:   layout.Node{Intro: intro, Dataset: dataset, Value: format},
	}, nil
}

func (c *layoutCompiler) sizedList(v cue.Value, path string, hdr layout.Header) (layout.Layout, error) {
	l := &layout.SizedList{Header: hdr}

	itemsVal := v.LookupPath(cue.ParsePath("items"))
	if !itemsVal.Exists() {
		return l, nil
	}
	iter, err := itemsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		item, err := c.item(iter.Value(), fmt.Sprintf("%s.items[%d]", path, i))
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, item)
	}
	return l, nil
}

// child decodes the parts shared by fields, variants, items and nodes.
func (c *layoutCompiler) child(v cue.Value, path string) (uint32, []pattern.Quad, layout.ValueFormat, error) {
	intro, err := optionalUint32(v, "intro", path)
	if err != nil {
		return 0, nil, layout.ValueFormat{}, err
	}
	dataset, err := c.dataset(v, path)
	if err != nil {
		return 0, nil, layout.ValueFormat{}, err
	}
	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return 0, nil, layout.ValueFormat{}, &CompileError{Field: path + ".value", Message: "value is required", Pos: v.Pos()}
	}
	format, err := c.valueFormat(valueVal, path+".value")
	if err != nil {
		return 0, nil, layout.ValueFormat{}, err
	}
	return intro, dataset, format, nil
}

// valueFormat decodes {layout, input?, graph?}. An absent graph inherits
// the current graph, null selects the default graph.
func (c *layoutCompiler) valueFormat(v cue.Value, path string) (layout.ValueFormat, error) {
	var f layout.ValueFormat

	iri, err := requiredString(v, "layout", path)
	if err != nil {
		return f, err
	}
	if f.Layout, err = c.ref(iri, path+".layout", v.Pos()); err != nil {
		return f, err
	}

	if inputVal := v.LookupPath(cue.ParsePath("input")); inputVal.Exists() {
		iter, err := inputVal.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			p, err := c.pattern(iter.Value(), fmt.Sprintf("%s.input[%d]", path, i))
			if err != nil {
				return f, err
			}
			f.Input = append(f.Input, p)
		}
	}

	graphVal := v.LookupPath(cue.ParsePath("graph"))
	switch {
	case !graphVal.Exists():
		f.Graph.Mode = layout.GraphInherit
	case graphVal.IsNull():
		f.Graph.Mode = layout.GraphDefault
	default:
		p, err := c.pattern(graphVal, path+".graph")
		if err != nil {
			return f, err
		}
		f.Graph = layout.GraphFormat{Mode: layout.GraphPattern, Pattern: p}
	}
	return f, nil
}

// dataset decodes the optional "dataset" list of 3- or 4-pattern quads.
func (c *layoutCompiler) dataset(v cue.Value, path string) ([]pattern.Quad, error) {
	datasetVal := v.LookupPath(cue.ParsePath("dataset"))
	if !datasetVal.Exists() {
		return nil, nil
	}
	iter, err := datasetVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var quads []pattern.Quad
	for i := 0; iter.Next(); i++ {
		quadPath := fmt.Sprintf("%s.dataset[%d]", path, i)
		parts, err := iter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var ps []pattern.Pattern
		for j := 0; parts.Next(); j++ {
			p, err := c.pattern(parts.Value(), fmt.Sprintf("%s[%d]", quadPath, j))
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
		}
		switch len(ps) {
		case 3:
			quads = append(quads, pattern.NewQuad(ps[0], ps[1], ps[2]))
		case 4:
			quads = append(quads, pattern.NewQuad(ps[0], ps[1], ps[2]).InGraph(ps[3]))
		default:
			return nil, &CompileError{
				Field:   quadPath,
				Message: fmt.Sprintf("quad pattern must have 3 or 4 components, got %d", len(ps)),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return quads, nil
}

func (c *layoutCompiler) requiredPattern(v cue.Value, name, path string) (pattern.Pattern, error) {
	pv := v.LookupPath(cue.ParsePath(name))
	if !pv.Exists() {
		return pattern.Pattern{}, &CompileError{Field: path + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	return c.pattern(pv, path+"."+name)
}

// pattern decodes a variable or resource pattern.
func (c *layoutCompiler) pattern(v cue.Value, path string) (pattern.Pattern, error) {
	var term rdf.Term

	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return pattern.Pattern{}, formatCUEError(err)
		}
		switch {
		case strings.HasPrefix(s, "?"):
			n, err := strconv.ParseUint(s[1:], 10, 32)
			if err != nil {
				return pattern.Pattern{}, &CompileError{Field: path, Message: fmt.Sprintf("invalid variable %q", s), Pos: v.Pos()}
			}
			return pattern.Var(uint32(n)), nil
		case strings.HasPrefix(s, "_:"):
			term = rdf.Blank(s[2:])
		case s == "":
			return pattern.Pattern{}, &CompileError{Field: path, Message: "empty pattern", Pos: v.Pos()}
		default:
			term = rdf.IRI(s)
		}

	case cue.StructKind:
		lexical, err := requiredString(v, "literal", path)
		if err != nil {
			return pattern.Pattern{}, err
		}
		language, err := optionalString(v, "language")
		if err != nil {
			return pattern.Pattern{}, err
		}
		datatype, err := optionalString(v, "datatype")
		if err != nil {
			return pattern.Pattern{}, err
		}
		if language != "" {
			term = rdf.LangString(lexical, language)
		} else {
			term = rdf.TypedLiteral(lexical, datatype)
		}

	default:
		return pattern.Pattern{}, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("pattern must be a string or literal struct, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}

	r, err := c.in.InternTerm(term)
	if err != nil {
		return pattern.Pattern{}, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
	}
	return pattern.Resource(r), nil
}

// constValue converts a concrete CUE value into an untyped value.
func constValue(v cue.Value, path string) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Unit{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Boolean(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.NumberFromInt64(n), nil
	case cue.FloatKind:
		data, err := v.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		n, err := value.ParseDecimal(string(data))
		if err != nil {
			return nil, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
		}
		return n, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.TextString(s), nil
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.ByteString(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var l value.List
		for i := 0; iter.Next(); i++ {
			item, err := constValue(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			l = append(l, item)
		}
		return l, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m := make(value.Map)
		for iter.Next() {
			item, err := constValue(iter.Value(), path+"."+iter.Label())
			if err != nil {
				return nil, err
			}
			m[iter.Label()] = item
		}
		return m, nil
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("constant must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, name, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", &CompileError{Field: path + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalUint32(v cue.Value, name, path string) (uint32, error) {
	nv := v.LookupPath(cue.ParsePath(name))
	if !nv.Exists() {
		return 0, nil
	}
	n, err := nv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, &CompileError{Field: path + "." + name, Message: fmt.Sprintf("%d is out of range", n), Pos: nv.Pos()}
	}
	return uint32(n), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
