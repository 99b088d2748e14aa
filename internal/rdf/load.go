package rdf

import (
	"fmt"
	"io"
)

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	blankPrefix string
}

// WithBlankPrefix prefixes every blank node label of the document.
//
// Blank node labels are scoped to their document. Loading several
// documents into one interpretation needs a distinct prefix per document,
// otherwise equal labels would denote the same resource.
func WithBlankPrefix(prefix string) LoadOption {
	return func(c *loadConfig) {
		c.blankPrefix = prefix
	}
}

// ScopeBlank applies a blank node prefix to t.
func ScopeBlank(t Term, prefix string) Term {
	if prefix != "" && t.Kind == TermBlank {
		t.Value = prefix + t.Value
	}
	return t
}

// Load decodes N-Quads from r, interning every term in interp and
// inserting the quads in ds. It returns the number of statements read.
func Load(interp *Interpretation, ds *Dataset, r io.Reader, opts ...LoadOption) (int, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dec := NewDecoder(r)
	n := 0
	for {
		tq, err := dec.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("decode statement %d: %w", n+1, err)
		}
		ds.Insert(Quad{
			Subject:   interp.Intern(ScopeBlank(tq.Subject, cfg.blankPrefix)),
			Predicate: interp.Intern(tq.Predicate),
			Object:    interp.Intern(ScopeBlank(tq.Object, cfg.blankPrefix)),
			Graph:     interp.Intern(ScopeBlank(tq.Graph, cfg.blankPrefix)),
		})
		n++
	}
}
