// Package store provides a SQLite-backed RDF interpretation and dataset.
//
// A Store plays both roles the hydrator needs:
//   - rdf.Interner and rdf.ReverseInterpretation over the terms table
//   - rdf.PatternMatchingDataset over the quads table
//
// # Deterministic Results
//
// Quad lookups are compiled by internal/querysql and always ordered by
// insertion sequence, so hydrating from a store yields the same values as
// hydrating from an in-memory rdf.Dataset loaded in the same order.
//
// Lookups are fully read before they are returned. The matching engine
// nests lookups while iterating, and the store uses a single connection.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
