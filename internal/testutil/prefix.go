// Package testutil provides deterministic helpers for tests and scenarios.
package testutil

import (
	"fmt"
	"sync"
)

// FixedPrefixGenerator returns the same blank node prefix every time.
//
// With the empty prefix, blank node labels are kept as written, so a
// scenario can name "_:alice" directly in its inputs. Every document then
// shares one blank node namespace.
//
// Thread-safety: FixedPrefixGenerator is stateless and safe for concurrent use.
type FixedPrefixGenerator struct {
	prefix string
}

// NewFixedPrefixGenerator creates a generator always returning prefix.
func NewFixedPrefixGenerator(prefix string) *FixedPrefixGenerator {
	return &FixedPrefixGenerator{prefix: prefix}
}

// Generate returns the fixed prefix.
//
// Implements store.PrefixGenerator.
func (g *FixedPrefixGenerator) Generate() string {
	return g.prefix
}

// SequentialPrefixGenerator numbers documents: "doc1-", "doc2-", ...
//
// Unlike store.UUIDPrefixGenerator, the sequence is reproducible and can be
// reset, so the same scenario run twice scopes blank nodes identically.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialPrefixGenerator struct {
	mu   sync.Mutex
	base string
	seq  int
}

// NewSequentialPrefixGenerator creates a generator starting at 1.
// If base is empty, "doc" is used.
func NewSequentialPrefixGenerator(base string) *SequentialPrefixGenerator {
	if base == "" {
		base = "doc"
	}
	return &SequentialPrefixGenerator{base: base}
}

// Generate returns the next prefix.
func (g *SequentialPrefixGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s%d-", g.base, g.seq)
}

// Current returns how many prefixes were generated.
func (g *SequentialPrefixGenerator) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next prefix is numbered 1 again.
func (g *SequentialPrefixGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
