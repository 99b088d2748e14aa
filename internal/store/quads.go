package store

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/spruceid/treeldr-sub002/internal/querysql"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
)

var _ rdf.PatternMatchingDataset = (*Store)(nil)

// Insert adds quads, ignoring those already present.
// Returns the number of quads actually inserted.
func (s *Store) Insert(ctx context.Context, quads ...rdf.Quad) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, q := range quads {
		ok, err := insertQuad(ctx, tx, q)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Len returns the number of stored quads.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quads").Scan(&n); err != nil {
		return 0, fmt.Errorf("count quads: %w", err)
	}
	return n, nil
}

// QuadPatternMatching implements rdf.PatternMatchingDataset.
// Quads are returned in insertion order.
func (s *Store) QuadPatternMatching(p rdf.QuadPattern) (rdf.QuadIterator, error) {
	return s.Match(context.Background(), p)
}

// Match returns every quad matching p, in insertion order.
func (s *Store) Match(ctx context.Context, p rdf.QuadPattern) (*rdf.SliceIterator, error) {
	query, params, err := querysql.CompileQuadPattern(p)
	if err != nil {
		return nil, fmt.Errorf("compile quad pattern: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query quads: %w", err)
	}
	defer rows.Close()

	var quads []rdf.Quad
	for rows.Next() {
		var sub, pred, obj, graph int64
		if err := rows.Scan(&sub, &pred, &obj, &graph); err != nil {
			return nil, fmt.Errorf("scan quad: %w", err)
		}
		quads = append(quads, rdf.Quad{
			Subject:   rdf.Resource(sub),
			Predicate: rdf.Resource(pred),
			Object:    rdf.Resource(obj),
			Graph:     rdf.Resource(graph),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quads: %w", err)
	}
	return rdf.NewSliceIterator(quads), nil
}

// PrefixGenerator yields the blank node prefix of an imported document.
type PrefixGenerator interface {
	Generate() string
}

// UUIDPrefixGenerator yields a fresh UUIDv7 prefix per document, so blank
// nodes of distinct documents never collide.
type UUIDPrefixGenerator struct{}

// Generate implements PrefixGenerator.
func (UUIDPrefixGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String() + "-"
}

// ImportOption configures Import.
type ImportOption func(*importConfig)

type importConfig struct {
	prefixes PrefixGenerator
}

type fixedPrefix string

func (p fixedPrefix) Generate() string { return string(p) }

// WithBlankPrefix sets the prefix applied to the document's blank node
// labels. The empty prefix keeps labels as written.
func WithBlankPrefix(prefix string) ImportOption {
	return func(c *importConfig) {
		c.prefixes = fixedPrefix(prefix)
	}
}

// WithPrefixGenerator draws the blank node prefix from g.
// Defaults to UUIDPrefixGenerator.
func WithPrefixGenerator(g PrefixGenerator) ImportOption {
	return func(c *importConfig) {
		c.prefixes = g
	}
}

// Import decodes N-Quads from r into the store in a single transaction.
// Returns the number of statements read.
func (s *Store) Import(ctx context.Context, r io.Reader, opts ...ImportOption) (int, error) {
	cfg := importConfig{prefixes: UUIDPrefixGenerator{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	prefix := cfg.prefixes.Generate()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	dec := rdf.NewDecoder(r)
	n := 0
	for {
		tq, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("decode statement %d: %w", n+1, err)
		}

		var q rdf.Quad
		if q.Subject, err = intern(ctx, tx, rdf.ScopeBlank(tq.Subject, prefix)); err != nil {
			return 0, err
		}
		if q.Predicate, err = intern(ctx, tx, tq.Predicate); err != nil {
			return 0, err
		}
		if q.Object, err = intern(ctx, tx, rdf.ScopeBlank(tq.Object, prefix)); err != nil {
			return 0, err
		}
		if q.Graph, err = internGraph(ctx, tx, rdf.ScopeBlank(tq.Graph, prefix)); err != nil {
			return 0, err
		}
		if _, err := insertQuad(ctx, tx, q); err != nil {
			return 0, err
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func insertQuad(ctx context.Context, q querier, quad rdf.Quad) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO quads (subject, predicate, object, graph)
		VALUES (?, ?, ?, ?)
	`, int64(quad.Subject), int64(quad.Predicate), int64(quad.Object), int64(quad.Graph))
	if err != nil {
		return false, fmt.Errorf("insert quad %s: %w", quad, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
