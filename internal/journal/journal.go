package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added correction_id to cycles
// 2 - Keyed dispatches and cycles by (run, seq)
const currentSchemaVersion = 2

// legacyRun is the run assigned to rows written before runs existed.
const legacyRun = 1

// Journal is the durable audit trail of a store.
// It implements store.Observer.
//
// Every engine numbers its records from seq 1, so each writer records under
// its own run. The run is claimed on the first write, or explicitly with
// BeginRun.
type Journal struct {
	db *sql.DB

	mu  sync.Mutex
	run int64
}

// Open creates or opens a SQLite journal at the given path.
// Applies required pragmas and migrations automatically.
// Use ":memory:" for a throwaway journal.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (j *Journal) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return j.db.QueryContext(ctx, query, args...)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds cycles.correction_id to journals created before v1.
// New journals already have the column from schema.sql.
func migrateToV1(db *sql.DB) error {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('cycles') WHERE name = 'correction_id'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE cycles ADD COLUMN correction_id TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// migrateToV2 rebuilds tables keyed by seq alone into (run, seq) tables.
// Existing rows are assigned to legacyRun.
func migrateToV2(db *sql.DB) error {
	tables := []struct {
		name    string
		columns string
	}{
		{"dispatches", "seq, op_id, kind, operation, snapshot"},
		{"cycles", "seq, origin_id, origin_kind, response_kind, replayed, fast_state, true_state, " +
			"reconciled, reconciled_hash, diverged, policy, dropped, correction_id"},
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	defer tx.Rollback()

	var legacy []string
	for _, t := range tables {
		var count int
		err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = 'run'`, t.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s RENAME TO %s_v1`, t.name, t.name)); err != nil {
			return fmt.Errorf("migrate to v2: rename %s: %w", t.name, err)
		}
		legacy = append(legacy, t.name)
	}
	if len(legacy) == 0 {
		return tx.Commit()
	}

	// Recreate the renamed tables. Indexes still attached to the *_v1 tables
	// are recreated after those tables are dropped.
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}

	copied := int64(0)
	for _, t := range tables {
		if !contains(legacy, t.name) {
			continue
		}
		res, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (run, %s) SELECT ?, %s FROM %s_v1`,
			t.name, t.columns, t.columns, t.name), legacyRun)
		if err != nil {
			return fmt.Errorf("migrate to v2: copy %s: %w", t.name, err)
		}
		n, _ := res.RowsAffected()
		copied += n
		if _, err := tx.Exec(fmt.Sprintf(`DROP TABLE %s_v1`, t.name)); err != nil {
			return fmt.Errorf("migrate to v2: drop %s_v1: %w", t.name, err)
		}
	}
	if copied > 0 {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO runs (run) VALUES (?)`, legacyRun); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}

	return tx.Commit()
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// BeginRun claims the next run number. Later writes are recorded under it.
func (j *Journal) BeginRun(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.beginRunLocked(ctx)
}

func (j *Journal) beginRunLocked(ctx context.Context) (int64, error) {
	var run int64
	err := j.db.QueryRowContext(ctx, `
		INSERT INTO runs (run) SELECT COALESCE(MAX(run), 0) + 1 FROM runs
		RETURNING run
	`).Scan(&run)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	j.run = run
	return run, nil
}

// Run returns the run this journal writes under, or 0 before the first write.
func (j *Journal) Run() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.run
}

// writeRun returns the current run, claiming one if none is open.
func (j *Journal) writeRun(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.run != 0 {
		return j.run, nil
	}
	return j.beginRunLocked(ctx)
}

// Runs returns every recorded run in ascending order.
func (j *Journal) Runs(ctx context.Context) ([]int64, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT run FROM runs ORDER BY run ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []int64{}
	for rows.Next() {
		var run int64
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the highest recorded run, or 0 if the journal is empty.
func (j *Journal) LatestRun(ctx context.Context) (int64, error) {
	var run int64
	if err := j.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(run), 0) FROM runs`).Scan(&run); err != nil {
		return 0, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (j *Journal) verifyPragma(name, expected string) error {
	var value string
	if err := j.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
