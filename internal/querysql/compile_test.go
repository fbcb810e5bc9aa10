package querysql

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/queryir"
)

var testSchema = queryir.Schema{
	"cycles": {"seq", "origin_kind", "diverged", "policy"},
}

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler(testSchema)

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "cycles",
		Columns: []string{"seq", "policy"},
		Filter:  queryir.Equals{Field: "policy", Value: ir.String("conservative")},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT seq, policy FROM cycles WHERE policy = ? ORDER BY seq ASC", sql)
	assert.NotContains(t, sql, "conservative")
	assert.Equal(t, []any{"conservative"}, params)
}

func TestCompile_PointerSelect(t *testing.T) {
	compiler := NewSQLCompiler(testSchema)

	sql, params, err := compiler.Compile(&queryir.Select{From: "cycles", Columns: []string{"seq"}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT seq FROM cycles ORDER BY seq ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_AndWithRange(t *testing.T) {
	compiler := NewSQLCompiler(testSchema)

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "cycles",
		Columns: []string{"seq"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "diverged", Value: ir.Bool(true)},
			queryir.AtLeast{Field: "seq", Value: ir.Int(4)},
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "origin_kind", Value: ir.String("REMOTE_LOAD_COUNTER")},
				queryir.Equals{Field: "policy", Value: ir.String("permissive")},
			}},
		}},
		OrderBy: "origin_kind",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT seq FROM cycles WHERE diverged = ? AND seq >= ? AND (origin_kind = ? AND policy = ?) ORDER BY origin_kind ASC",
		sql)
	assert.Equal(t, []any{int64(1), int64(4), "REMOTE_LOAD_COUNTER", "permissive"}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	compiler := NewSQLCompiler(testSchema)

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "cycles",
		Columns: []string{"seq"},
		Filter:  queryir.And{},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT seq FROM cycles WHERE 1 = 1 ORDER BY seq ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_RejectsInvalidQuery(t *testing.T) {
	compiler := NewSQLCompiler(testSchema)

	_, _, err := compiler.Compile(queryir.Select{
		From:    "cycles; DROP TABLE cycles",
		Columns: []string{"seq"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, queryir.ErrInvalidQuery)

	_, _, err = compiler.Compile(nil)
	assert.ErrorIs(t, err, queryir.ErrInvalidQuery)
}

func TestValueToParam(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Value
		want any
	}{
		{"string", ir.String("x"), "x"},
		{"int", ir.Int(-3), int64(-3)},
		{"true", ir.Bool(true), int64(1)},
		{"false", ir.Bool(false), int64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := valueToParam(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := valueToParam(ir.Array{})
	assert.Error(t, err)
}

// TestCompile_ExecutesOnSQLite runs compiled SQL against a real in-memory
// database to check placeholders line up with parameters.
func TestCompile_ExecutesOnSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE cycles (seq INTEGER PRIMARY KEY, origin_kind TEXT, diverged INTEGER, policy TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cycles VALUES
		(1, 'REMOTE_LOAD_COUNTER', 0, 'permissive'),
		(2, 'REMOTE_LOAD_COUNTER', 1, 'permissive'),
		(3, 'REMOTE_DOUBLE_COUNTER', 1, 'permissive'),
		(4, 'REMOTE_LOAD_COUNTER', 1, 'permissive')`)
	require.NoError(t, err)

	query, params, err := NewSQLCompiler(testSchema).Compile(queryir.Select{
		From:    "cycles",
		Columns: []string{"seq"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "diverged", Value: ir.Bool(true)},
			queryir.Equals{Field: "origin_kind", Value: ir.String("REMOTE_LOAD_COUNTER")},
		}},
	})
	require.NoError(t, err)

	rows, err := db.Query(query, params...)
	require.NoError(t, err)
	defer rows.Close()

	var seqs []int64
	for rows.Next() {
		var seq int64
		require.NoError(t, rows.Scan(&seq))
		seqs = append(seqs, seq)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{2, 4}, seqs)
}
