package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spruceid/treeldr-sub002/internal/rdf"
)

var (
	_ rdf.Interner              = (*Store)(nil)
	_ rdf.ReverseInterpretation = (*Store)(nil)
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Intern returns the resource of t, allocating one if needed.
func (s *Store) Intern(ctx context.Context, t rdf.Term) (rdf.Resource, error) {
	return intern(ctx, s.db, t)
}

// InternTerm implements rdf.Interner.
func (s *Store) InternTerm(t rdf.Term) (rdf.Resource, error) {
	return s.Intern(context.Background(), t)
}

// Lookup returns the resource of t without allocating.
func (s *Store) Lookup(ctx context.Context, t rdf.Term) (rdf.Resource, bool, error) {
	return lookup(ctx, s.db, t)
}

// Assign makes t an additional representation of r.
// Assigning a term already bound to another resource is an error.
func (s *Store) Assign(ctx context.Context, t rdf.Term, r rdf.Resource) error {
	if t.IsZero() {
		return fmt.Errorf("cannot assign the empty term")
	}

	existing, ok, err := lookup(ctx, s.db, t)
	if err != nil {
		return err
	}
	if ok {
		if existing != r {
			return fmt.Errorf("term %s already denotes %s", t, existing)
		}
		return nil
	}

	var id int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM resources WHERE id = ?", int64(r)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("unknown resource %s", r)
	}
	if err != nil {
		return fmt.Errorf("query resource: %w", err)
	}

	return insertTerm(ctx, s.db, t, r)
}

// Terms returns every representation of r in assignment order.
func (s *Store) Terms(ctx context.Context, r rdf.Resource) ([]rdf.Term, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, value, datatype, language
		FROM terms
		WHERE resource = ?
		ORDER BY id ASC
	`, int64(r))
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()

	terms := []rdf.Term{}
	for rows.Next() {
		var t rdf.Term
		var kind int64
		if err := rows.Scan(&kind, &t.Value, &t.Datatype, &t.Language); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		t.Kind = rdf.TermKind(kind)
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return terms, nil
}

// Iris implements rdf.ReverseIriInterpretation.
func (s *Store) Iris(r rdf.Resource) ([]string, error) {
	terms, err := s.termsOfKind(r, rdf.TermIRI)
	if err != nil {
		return nil, err
	}
	iris := make([]string, len(terms))
	for i, t := range terms {
		iris[i] = t.Value
	}
	return iris, nil
}

// Literals implements rdf.ReverseLiteralInterpretation.
func (s *Store) Literals(r rdf.Resource) ([]rdf.Literal, error) {
	terms, err := s.termsOfKind(r, rdf.TermLiteral)
	if err != nil {
		return nil, err
	}
	lits := make([]rdf.Literal, len(terms))
	for i, t := range terms {
		lits[i], _ = t.Literal()
	}
	return lits, nil
}

func (s *Store) termsOfKind(r rdf.Resource, kind rdf.TermKind) ([]rdf.Term, error) {
	terms, err := s.Terms(context.Background(), r)
	if err != nil {
		return nil, err
	}
	out := terms[:0]
	for _, t := range terms {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

func intern(ctx context.Context, q querier, t rdf.Term) (rdf.Resource, error) {
	if t.IsZero() {
		return rdf.NoResource, fmt.Errorf("cannot intern the empty term")
	}

	r, ok, err := lookup(ctx, q, t)
	if err != nil || ok {
		return r, err
	}

	res, err := q.ExecContext(ctx, "INSERT INTO resources DEFAULT VALUES")
	if err != nil {
		return rdf.NoResource, fmt.Errorf("insert resource: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return rdf.NoResource, fmt.Errorf("resource id: %w", err)
	}
	r = rdf.Resource(id)

	if err := insertTerm(ctx, q, t, r); err != nil {
		return rdf.NoResource, err
	}
	return r, nil
}

// internGraph interns a graph term; the zero term is the default graph.
func internGraph(ctx context.Context, q querier, t rdf.Term) (rdf.Resource, error) {
	if t.IsZero() {
		return rdf.NoResource, nil
	}
	return intern(ctx, q, t)
}

func lookup(ctx context.Context, q querier, t rdf.Term) (rdf.Resource, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT resource FROM terms
		WHERE kind = ? AND value = ? AND datatype = ? AND language = ?
	`, int64(t.Kind), t.Value, t.Datatype, t.Language).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return rdf.NoResource, false, nil
	}
	if err != nil {
		return rdf.NoResource, false, fmt.Errorf("query term: %w", err)
	}
	return rdf.Resource(id), true, nil
}

func insertTerm(ctx context.Context, q querier, t rdf.Term, r rdf.Resource) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO terms (kind, value, datatype, language, resource)
		VALUES (?, ?, ?, ?, ?)
	`, int64(t.Kind), t.Value, t.Datatype, t.Language, int64(r))
	if err != nil {
		return fmt.Errorf("insert term %s: %w", t, err)
	}
	return nil
}
