package queryir

import "github.com/roach88/fastpath/internal/ir"

// Query represents an abstract read over one journal table.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal
//   - AtLeast: field >= literal
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads explicit columns from one table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order_by>
//
// Example:
//
//	Select{
//	  From:    "cycles",
//	  Columns: []string{"seq", "origin_kind"},
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "diverged", Value: ir.Bool(true)},
//	    AtLeast{Field: "seq", Value: ir.Int(10)},
//	  }},
//	}
//
// OrderBy defaults to DefaultOrderBy. Results are always ordered; journal
// reads must be reproducible.
type Select struct {
	From    string    // Table name (e.g., "cycles")
	Columns []string  // Selected columns, in output order
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy string    // Ordering column (empty = DefaultOrderBy)
}

func (Select) queryNode() {}

// DefaultOrderBy is the ordering column of every journal table.
const DefaultOrderBy = "seq"

// Order returns the effective ordering column.
func (s Select) Order() string {
	if s.OrderBy == "" {
		return DefaultOrderBy
	}
	return s.OrderBy
}

// Equals is a field-equals-literal predicate.
//
//	Equals{Field: "policy", Value: ir.String("conservative")}
//
// becomes "policy = ?" with one parameter.
type Equals struct {
	Field string   // Column name
	Value ir.Value // Literal value (String, Int or Bool)
}

func (Equals) predicateNode() {}

// AtLeast is a field-greater-or-equal predicate, used for seq ranges.
//
//	AtLeast{Field: "seq", Value: ir.Int(10)}
//
// becomes "seq >= ?".
type AtLeast struct {
	Field string   // Column name
	Value ir.Value // Literal value (Int)
}

func (AtLeast) predicateNode() {}

// And is a conjunction of predicates. An empty And is always true.
type And struct {
	Predicates []Predicate // All must be true (empty = always true)
}

func (And) predicateNode() {}

// Schema lists the columns of each table a query may reference.
type Schema map[string][]string

// HasColumn reports whether table has the named column.
func (s Schema) HasColumn(table, column string) bool {
	for _, c := range s[table] {
		if c == column {
			return true
		}
	}
	return false
}
