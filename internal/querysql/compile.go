package querysql

import (
	"fmt"
	"strings"

	"github.com/spruceid/treeldr-sub002/internal/queryir"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
)

// QuadColumns are the columns of the quads relation, in rdf.Quad order.
var QuadColumns = []string{"subject", "predicate", "object", "graph"}

// QuadQuery builds the lookup of a canonical quad pattern.
// Bound positions become equality filters; the default graph is stored as
// graph 0. Quads come back in insertion order.
func QuadQuery(p rdf.QuadPattern) queryir.Select {
	var preds []queryir.Predicate
	bind := func(field string, r *rdf.Resource) {
		if r != nil {
			preds = append(preds, queryir.Equals{Field: field, Value: int64(*r)})
		}
	}
	bind("subject", p.Subject)
	bind("predicate", p.Predicate)
	bind("object", p.Object)
	switch p.Graph.Mode {
	case rdf.GraphDefault:
		preds = append(preds, queryir.Equals{Field: "graph", Value: int64(rdf.NoResource)})
	case rdf.GraphNamed:
		preds = append(preds, queryir.Equals{Field: "graph", Value: int64(p.Graph.Name)})
	}

	q := queryir.Select{
		From:    "quads",
		Columns: QuadColumns,
		OrderBy: []string{"seq"},
	}
	if len(preds) > 0 {
		q.Filter = queryir.And{Predicates: preds}
	}
	return q
}

// CompileQuadPattern compiles a quad pattern lookup to parameterized SQL.
func CompileQuadPattern(p rdf.QuadPattern) (string, []any, error) {
	return Compile(QuadQuery(p))
}

// Compile converts a query to parameterized SQL for SQLite.
// Returns (sql, params, error) tuple.
//
// Every query includes ORDER BY; values are always parameterized.
func Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	case queryir.Select:
		return compileSelect(query)
	case *queryir.Select:
		return compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func compileSelect(q queryir.Select) (string, []any, error) {
	if result := queryir.Validate(q); !result.IsPortable {
		return "", nil, fmt.Errorf("non-portable query: %s", strings.Join(result.Warnings, "; "))
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	order := make([]string, len(q.OrderBy))
	for i, c := range q.OrderBy {
		order[i] = c + " ASC"
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(q.Columns, ", "),
		q.From,
		whereClause,
		strings.Join(order, ", "))

	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// Values are never interpolated.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}, nil
	case *queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}, nil
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}
