package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit bounds the rolling history.
const DefaultHistoryLimit = 50

// History is the sqlite-backed rolling store of finished-run records.
type History struct {
	db    *sql.DB
	limit int
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string, limit int) (*History, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS run_history (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		duration_seconds REAL NOT NULL,
		total_sections INTEGER NOT NULL,
		revised_sections INTEGER NOT NULL,
		review_rounds INTEGER NOT NULL,
		tool_calls INTEGER NOT NULL,
		tool_failures INTEGER NOT NULL,
		duplicate_write_skips INTEGER NOT NULL,
		quality_gate_triggered INTEGER NOT NULL,
		quality_gate_passed INTEGER NOT NULL,
		final_review_score INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &History{db: db, limit: limit}, nil
}

// Append stores a finished run and prunes the oldest rows beyond the limit.
func (h *History) Append(r Record) error {
	_, err := h.db.Exec(`INSERT OR REPLACE INTO run_history (
		run_id, started_at, finished_at, duration_seconds,
		total_sections, revised_sections, review_rounds,
		tool_calls, tool_failures, duplicate_write_skips,
		quality_gate_triggered, quality_gate_passed, final_review_score
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.StartedAt.Format(time.RFC3339Nano),
		r.FinishedAt.Format(time.RFC3339Nano),
		r.DurationSeconds,
		r.TotalSections,
		r.RevisedSections,
		r.ReviewRounds,
		r.ToolCalls,
		r.ToolFailures,
		r.DuplicateWriteSkips,
		boolToInt(r.QualityGateTriggered),
		boolToInt(r.QualityGatePassed),
		r.FinalReviewScore,
	)
	if err != nil {
		return fmt.Errorf("appending run record: %w", err)
	}

	_, err = h.db.Exec(`DELETE FROM run_history WHERE run_id NOT IN (
		SELECT run_id FROM run_history ORDER BY finished_at DESC LIMIT ?
	)`, h.limit)
	return err
}

// Recent returns up to n records, newest first.
func (h *History) Recent(n int) ([]Record, error) {
	if n <= 0 || n > h.limit {
		n = h.limit
	}
	rows, err := h.db.Query(`SELECT
		run_id, started_at, finished_at, duration_seconds,
		total_sections, revised_sections, review_rounds,
		tool_calls, tool_failures, duplicate_write_skips,
		quality_gate_triggered, quality_gate_passed, final_review_score
	FROM run_history ORDER BY finished_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var started, finished string
		var triggered, passed int
		if err := rows.Scan(
			&r.RunID, &started, &finished, &r.DurationSeconds,
			&r.TotalSections, &r.RevisedSections, &r.ReviewRounds,
			&r.ToolCalls, &r.ToolFailures, &r.DuplicateWriteSkips,
			&triggered, &passed, &r.FinalReviewScore,
		); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.QualityGateTriggered = triggered != 0
		r.QualityGatePassed = passed != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
