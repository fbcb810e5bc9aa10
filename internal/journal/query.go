package journal

import (
	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/queryir"
	"github.com/roach88/fastpath/internal/querysql"
)

var (
	dispatchColumns = []string{"run", "seq", "op_id", "kind", "snapshot"}

	cycleColumns = []string{
		"run", "seq", "origin_id", "origin_kind", "response_kind", "replayed",
		"fast_state", "true_state", "reconciled", "reconciled_hash",
		"diverged", "policy", "dropped", "correction_id",
	}
)

// Schema is the readable column set of each journal table. Must match
// schema.sql.
var Schema = queryir.Schema{
	"dispatches": append(append([]string(nil), dispatchColumns...), "operation"),
	"cycles":     cycleColumns,
}

var compiler = querysql.NewSQLCompiler(Schema)

// CycleFilter narrows ReadCycles. The zero value matches every cycle.
type CycleFilter struct {
	Run          int64  // run to read; 0 = latest (ReadCycles) or any (Predicate)
	DivergedOnly bool   // only cycles where fast and replay disagreed
	OriginKind   string // only cycles closing this authoritative kind
	Policy       string // only cycles reconciled under this policy
	SinceSeq     int64  // only cycles with seq >= SinceSeq
}

// Predicate converts the filter into a query predicate, or nil when the
// filter is empty.
func (f CycleFilter) Predicate() queryir.Predicate {
	var preds []queryir.Predicate
	if f.Run > 0 {
		preds = append(preds, queryir.Equals{Field: "run", Value: ir.Int(f.Run)})
	}
	if f.DivergedOnly {
		preds = append(preds, queryir.Equals{Field: "diverged", Value: ir.Bool(true)})
	}
	if f.OriginKind != "" {
		preds = append(preds, queryir.Equals{Field: "origin_kind", Value: ir.String(f.OriginKind)})
	}
	if f.Policy != "" {
		preds = append(preds, queryir.Equals{Field: "policy", Value: ir.String(f.Policy)})
	}
	if f.SinceSeq > 0 {
		preds = append(preds, queryir.AtLeast{Field: "seq", Value: ir.Int(f.SinceSeq)})
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return queryir.And{Predicates: preds}
	}
}
