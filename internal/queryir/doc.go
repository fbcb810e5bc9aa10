// Package queryir is the filter language for reading the reconciliation
// journal back.
//
// Callers describe what they want as a small tree of Query and Predicate
// nodes; a backend (querysql) turns that tree into a concrete query. The
// journal never builds SQL strings by hand, so every read path is checked
// against the same table schema and every value is parameterized.
//
// SUPPORTED FRAGMENT:
//   - Select(from, columns, filter, order) over a single table
//   - Predicates: Equals, AtLeast, And
//   - Explicit column lists (no SELECT *)
//   - Scalar literal values only (String, Int, Bool)
//
// Excluded on purpose: joins, OR, NULL comparisons, aggregation.
//
// SEALED INTERFACES:
//
// Query and Predicate use the marker method pattern, so only types in this
// package implement them and backends can switch on them exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case AtLeast:
//	case And:
//	}
package queryir
