package queryir

import (
	"fmt"
	"regexp"
)

// ValidationResult contains portability analysis of a query.
//
// A portable query can be translated by every backend and yields the same
// rows in the same order.
type ValidationResult struct {
	// IsPortable indicates the query uses only portable fragment features.
	IsPortable bool

	// Warnings lists non-portable features used in the query.
	// Empty when IsPortable is true.
	Warnings []string
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks a query against the portable fragment rules:
//  1. Relation and column names are plain identifiers
//  2. Explicit columns - no SELECT * wildcards
//  3. Explicit ordering - results must come back in a stable order
//  4. Resource ids are non-negative
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addWarning("nil query - portable fragment requires valid query nodes")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addWarning("Unknown query type: %T - portability cannot be verified", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.validateName("relation", sel.From)

	if len(sel.Columns) == 0 {
		v.addWarning("Empty columns (SELECT *) - portable fragment requires explicit column selection")
	}
	for _, c := range sel.Columns {
		v.validateName("column", c)
	}

	if len(sel.OrderBy) == 0 {
		v.addWarning("Missing ORDER BY - portable fragment requires deterministic ordering")
	}
	for _, c := range sel.OrderBy {
		v.validateName("order column", c)
	}

	v.validatePredicate(sel.Filter)
}

func (v *validator) validateName(what, name string) {
	if !identifier.MatchString(name) {
		v.addWarning("Invalid %s name %q - portable fragment requires plain identifiers", what, name)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// No filter
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addWarning("Unknown predicate type: %T - portability cannot be verified", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.validateName("column", eq.Field)
	if eq.Value < 0 {
		v.addWarning("Field '%s' compared to negative id %d - resource ids are non-negative", eq.Field, eq.Value)
	}
}
