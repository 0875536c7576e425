// Package rundb records completed runs in a local SQLite database so
// parameter sweeps over the same terrain can be compared later.
package rundb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the run history database.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) the run history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			dem_path          TEXT,
			trigger_count     BIGINT,
			skipped_triggers  BIGINT,
			alpha_degrees     DOUBLE,
			cells_marked      BIGINT,
			total_cells       BIGINT,
			duration_ms       BIGINT,
			output_path       TEXT,
			created_unix_nanos BIGINT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// Run is one recorded evaluation.
type Run struct {
	RunID           string
	DEMPath         string
	TriggerCount    int
	SkippedTriggers int
	AlphaDegrees    float64
	CellsMarked     int
	TotalCells      int
	Duration        time.Duration
	OutputPath      string
	Timestamp       time.Time
}

// RecordRun inserts a run row, assigning a run id and timestamp if the record
// has none. The assigned id is returned.
func (s *Store) RecordRun(r Run) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	_, err := s.Exec(`
		INSERT INTO runs (
			run_id, dem_path, trigger_count, skipped_triggers, alpha_degrees,
			cells_marked, total_cells, duration_ms, output_path, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.DEMPath, r.TriggerCount, r.SkippedTriggers, r.AlphaDegrees,
		r.CellsMarked, r.TotalCells, r.Duration.Milliseconds(), r.OutputPath,
		r.Timestamp.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("rundb: inserting run: %w", err)
	}
	return r.RunID, nil
}

// ListRuns returns up to limit most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.Query(`
		SELECT run_id, dem_path, trigger_count, skipped_triggers, alpha_degrees,
		       cells_marked, total_cells, duration_ms, output_path, created_unix_nanos
		FROM runs ORDER BY created_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("rundb: querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMs, createdNanos int64
		if err := rows.Scan(
			&r.RunID, &r.DEMPath, &r.TriggerCount, &r.SkippedTriggers, &r.AlphaDegrees,
			&r.CellsMarked, &r.TotalCells, &durationMs, &r.OutputPath, &createdNanos,
		); err != nil {
			return nil, fmt.Errorf("rundb: scanning run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Timestamp = time.Unix(0, createdNanos)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
