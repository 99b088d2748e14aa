package queryir

// Query represents an abstract lookup.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads columns from a single relation.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order>
//
// Example:
//
//	Select{
//	  From:    "quads",
//	  Columns: []string{"subject", "predicate", "object", "graph"},
//	  Filter:  And{Predicates: []Predicate{Equals{Field: "subject", Value: 3}}},
//	  OrderBy: []string{"seq"},
//	}
type Select struct {
	From    string    // Relation name
	Columns []string  // Selected columns, in result order
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy []string  // Ordering columns, ascending
}

func (Select) queryNode() {}

// Equals compares a column to a resource id.
type Equals struct {
	Field string
	Value int64
}

func (Equals) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
