// Package queryir is the backend-neutral form of a quad lookup.
//
// A quad pattern from the matching engine becomes a Select over the quad
// relation, which a backend compiler (see internal/querysql) turns into
// its own query language:
//
//	[rdf.QuadPattern] → [Query IR] → [SQL backend]
//
// The fragment is deliberately small:
//   - Select(from, columns, filter, order) over one relation
//   - Predicates: Equals on resource ids, And
//   - Explicit columns (no SELECT *)
//   - Explicit ordering, so lookups return quads in a stable order
//
// Query and Predicate are sealed interfaces; backends can switch over them
// exhaustively.
package queryir
