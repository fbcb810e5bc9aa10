package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/fastpath/internal/ir"
)

// ErrInvalidQuery wraps every validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validate checks a query against schema.
//
// Rules:
//  1. The table must exist in schema
//  2. Columns must be explicit (no SELECT *) and known
//  3. Every filtered or ordering column must be known
//  4. Equals compares against String, Int or Bool; never NULL
//  5. AtLeast compares against Int only
//
// All problems are reported together. Validate is a pure function.
func Validate(query Query, schema Schema) error {
	v := &validator{schema: schema}
	v.validateQuery(query)

	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidQuery, errors.Join(v.problems...))
}

// validator accumulates problems during traversal.
type validator struct {
	schema   Schema
	table    string
	problems []error
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if _, ok := v.schema[sel.From]; !ok {
		v.addProblem("unknown table %q", sel.From)
		return
	}
	v.table = sel.From

	if len(sel.Columns) == 0 {
		v.addProblem("no columns selected")
	}
	for _, c := range sel.Columns {
		v.checkColumn(c)
	}
	v.checkColumn(sel.Order())

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) checkColumn(column string) {
	if !v.schema.HasColumn(v.table, column) {
		v.addProblem("unknown column %q in table %q", column, v.table)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// nil predicates are valid (no filter)
	case Equals:
		v.checkColumn(pred.Field)
		switch pred.Value.(type) {
		case ir.String, ir.Int, ir.Bool:
		case nil, ir.Null:
			v.addProblem("column %q compared to NULL", pred.Field)
		default:
			v.addProblem("column %q compared to non-scalar %T", pred.Field, pred.Value)
		}
	case AtLeast:
		v.checkColumn(pred.Field)
		if _, ok := pred.Value.(ir.Int); !ok {
			v.addProblem("column %q range bound must be Int, got %T", pred.Field, pred.Value)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}
