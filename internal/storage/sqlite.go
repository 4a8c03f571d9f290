// Package storage provides SQLite-based persistence for run reports: the
// aggregate timing statistics of finished simulation runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for run reports.
type Store struct {
	db *sql.DB
}

// Report summarizes one simulation run.
type Report struct {
	RunID           string
	Seed            uint64
	Ticks           uint64
	Dt              time.Duration
	InfeasibleTicks uint64
	Solves          uint64
	CreatedAt       time.Time
	Timings         []ProcessTiming
}

// ProcessTiming is the per-process part of a report.
type ProcessTiming struct {
	Name     string
	Group    string
	Calls    uint64
	Failures uint64
	Average  time.Duration
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			dt_ns INTEGER NOT NULL,
			infeasible_ticks INTEGER NOT NULL DEFAULT 0,
			solves INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS process_timings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			name TEXT NOT NULL,
			grp TEXT NOT NULL,
			calls INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			avg_ns INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_process_timings_run_id ON process_timings(run_id);
		CREATE INDEX IF NOT EXISTS idx_process_timings_name ON process_timings(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport records a run and its process timings in one transaction.
// A run ID is generated when r.RunID is empty. Returns the run ID.
func (s *Store) SaveReport(r Report) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, seed, ticks, dt_ns, infeasible_ticks, solves)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, int64(r.Seed), int64(r.Ticks), int64(r.Dt), int64(r.InfeasibleTicks), int64(r.Solves),
	); err != nil {
		return "", fmt.Errorf("storage: cannot save run: %w", err)
	}

	for _, t := range r.Timings {
		if _, err := tx.Exec(
			`INSERT INTO process_timings (run_id, name, grp, calls, failures, avg_ns)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.RunID, t.Name, t.Group, int64(t.Calls), int64(t.Failures), int64(t.Average),
		); err != nil {
			return "", fmt.Errorf("storage: cannot save timing %q: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: cannot commit report: %w", err)
	}
	return r.RunID, nil
}

// RecentReports retrieves the most recent runs, newest first, without
// their timings.
func (s *Store) RecentReports(limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT run_id, seed, ticks, dt_ns, infeasible_ticks, solves, created_at
		 FROM runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var seed, ticks, dt, infeasible, solves int64
		var createdAt any
		if err := rows.Scan(&r.RunID, &seed, &ticks, &dt, &infeasible, &solves, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Seed = uint64(seed)
		r.Ticks = uint64(ticks)
		r.Dt = time.Duration(dt)
		r.InfeasibleTicks = uint64(infeasible)
		r.Solves = uint64(solves)
		r.CreatedAt = parseTime(createdAt)
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return reports, nil
}

// ReportTimings retrieves the process timings of a run in their original
// order. Returns nil for an unknown run.
func (s *Store) ReportTimings(runID string) ([]ProcessTiming, error) {
	rows, err := s.db.Query(
		`SELECT name, grp, calls, failures, avg_ns
		 FROM process_timings
		 WHERE run_id = ?
		 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query timings: %w", err)
	}
	defer rows.Close()

	var timings []ProcessTiming
	for rows.Next() {
		var t ProcessTiming
		var calls, failures, avg int64
		if err := rows.Scan(&t.Name, &t.Group, &calls, &failures, &avg); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		t.Calls = uint64(calls)
		t.Failures = uint64(failures)
		t.Average = time.Duration(avg)
		timings = append(timings, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return timings, nil
}

// ProcessStats contains statistics for one process aggregated over runs.
type ProcessStats struct {
	Name     string
	Runs     int
	Calls    int64
	Failures int64
	Average  time.Duration // Mean of the per-run averages
}

// AllProcessStats aggregates timings for every process ever recorded.
func (s *Store) AllProcessStats() (map[string]*ProcessStats, error) {
	rows, err := s.db.Query(
		`SELECT name, COUNT(*), SUM(calls), SUM(failures), AVG(avg_ns)
		 FROM process_timings
		 GROUP BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get process stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*ProcessStats)
	for rows.Next() {
		var p ProcessStats
		var avg float64
		if err := rows.Scan(&p.Name, &p.Runs, &p.Calls, &p.Failures, &avg); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		p.Average = time.Duration(avg)
		stats[p.Name] = &p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
