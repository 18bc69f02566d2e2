// Package storage provides SQLite-backed persistence for parity runs and
// their recorded pipeline outputs.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/tickpipe/data.db.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "tickpipe", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			fast_shift  INTEGER NOT NULL,
			slow_shift  INTEGER NOT NULL,
			latency     INTEGER NOT NULL,
			ticks       INTEGER NOT NULL,
			compared    INTEGER NOT NULL,
			matches     INTEGER NOT NULL,
			match_rate  REAL NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outputs (
			run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			cycle   INTEGER NOT NULL,
			valid   INTEGER NOT NULL,
			signal  INTEGER NOT NULL,
			fast    INTEGER NOT NULL,
			slow    INTEGER NOT NULL,
			PRIMARY KEY (run_id, cycle)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun inserts a run record and rotates out the oldest runs beyond the
// configured cap. Cascading deletes drop their recorded outputs too.
func (s *Storage) SaveRun(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO runs
			(id, source, fast_shift, slow_shift, latency, ticks,
			 compared, matches, match_rate, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Source, run.FastShift, run.SlowShift, run.Latency, run.Ticks,
		run.Compared, run.Matches, run.MatchRate, run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC LIMIT ?
		)`, s.maxRuns); err != nil {
		return fmt.Errorf("failed to enforce run cap: %w", err)
	}

	return tx.Commit()
}

// SaveOutputs records the pipeline output trace for a run in one transaction.
func (s *Storage) SaveOutputs(runID string, outputs []models.Output) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, out := range outputs {
		_, err := tx.Exec(`
			INSERT INTO outputs (run_id, cycle, valid, signal, fast, slow)
			VALUES (?,?,?,?,?,?)`,
			runID, out.Cycle, boolToInt(out.Valid), int(out.Signal), int64(out.Fast), int64(out.Slow),
		)
		if err != nil {
			return fmt.Errorf("failed to insert output %d: %w", out.Cycle, err)
		}
	}

	return tx.Commit()
}

func (s *Storage) GetRun(id string) (*models.Run, error) {
	row := s.db.QueryRow(`SELECT `+runCols+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the newest runs first, at most limit of them.
func (s *Storage) ListRuns(limit int) ([]*models.Run, error) {
	rows, err := s.db.Query(`SELECT `+runCols+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	var runs []*models.Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	return runs, rows.Err()
}

// LoadOutputs returns a run's recorded output trace in cycle order.
func (s *Storage) LoadOutputs(runID string) ([]models.Output, error) {
	rows, err := s.db.Query(`
		SELECT cycle, valid, signal, fast, slow
		FROM outputs WHERE run_id = ? ORDER BY cycle ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []models.Output
	for rows.Next() {
		var out models.Output
		var valid, signal int
		var fast, slow int64

		if err := rows.Scan(&out.Cycle, &valid, &signal, &fast, &slow); err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}

		out.Valid = valid != 0
		out.Signal = models.Signal(signal)
		out.Fast = fixed.Point(fast)
		out.Slow = fixed.Point(slow)
		outputs = append(outputs, out)
	}

	return outputs, rows.Err()
}

const runCols = `id, source, fast_shift, slow_shift, latency, ticks,
	compared, matches, match_rate, created_at`

func scanRun(scan func(...any) error) (*models.Run, error) {
	var r models.Run
	var fastShift, slowShift int64
	var createdAtNano int64
	err := scan(
		&r.ID, &r.Source, &fastShift, &slowShift, &r.Latency, &r.Ticks,
		&r.Compared, &r.Matches, &r.MatchRate, &createdAtNano,
	)
	if err != nil {
		return nil, err
	}
	r.FastShift = uint(fastShift)
	r.SlowShift = uint(slowShift)
	r.CreatedAt = time.Unix(0, createdAtNano)
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
