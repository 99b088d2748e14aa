// Package rdf provides the RDF data model the hydration engine reads from.
//
// This package is the foundational layer: every other internal package
// imports rdf, rdf imports nothing internal.
//
// The engine never creates resources. Resources are opaque ids owned by an
// interpretation, which maps lexical terms (IRIs, blank nodes, literals) to
// resources and back. A single resource may carry several terms, e.g. two
// lexical forms of the same decimal value.
//
// Capabilities consumed by the engine:
//   - PatternMatchingDataset: quad lookup by (partially bound) pattern
//   - ReverseIriInterpretation: resource -> IRIs
//   - ReverseLiteralInterpretation: resource -> literal representations
//
// Dataset and Interpretation are the in-memory implementations. The store
// package provides SQLite-backed ones.
package rdf
