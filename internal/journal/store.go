// Package journal provides persistent, append-only invocation records
// for bridged tool calls. Records are indexed by timestamp and tool for
// efficient aggregation queries. The journal never stores response
// bodies, so it cannot act as a cache.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Outcome values for a recorded invocation.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Record represents a single bridged tool invocation.
type Record struct {
	ID           string
	Timestamp    time.Time
	InvocationID string
	Tool         string // local tool name (e.g. "site_search")
	RemoteTool   string // remote tool it mapped onto (e.g. "web_search")
	Duration     time.Duration
	Outcome      string // OutcomeOK or OutcomeError
	Error        string // flattened error text, empty on success
}

// Summary holds aggregated invocation totals.
type Summary struct {
	TotalCalls    int
	TotalErrors   int
	TotalDuration time.Duration
}

// Store is an append-only SQLite store for invocation records. All
// public methods are safe for concurrent use (SQLite serializes writes).
type Store struct {
	db *sql.DB
}

// NewStore creates a journal store at the given database path. The
// schema is created automatically on first use.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id            TEXT PRIMARY KEY,
		timestamp     TEXT NOT NULL,
		invocation_id TEXT,
		tool          TEXT NOT NULL,
		remote_tool   TEXT NOT NULL,
		duration_ms   INTEGER NOT NULL,
		outcome       TEXT NOT NULL,
		error         TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_timestamp ON invocations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists an invocation record. If rec.ID is empty, a UUIDv7 is
// generated. The context is used for cancellation only.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate journal record ID: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations
			(id, timestamp, invocation_id, tool, remote_tool, duration_ms, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.InvocationID,
		rec.Tool,
		rec.RemoteTool,
		rec.Duration.Milliseconds(),
		rec.Outcome,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert journal record: %w", err)
	}
	return nil
}

// Summary returns aggregated totals for records within [start, end).
func (s *Store) Summary(start, end time.Time) (*Summary, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(duration_ms), 0)
		 FROM invocations
		 WHERE timestamp >= ? AND timestamp < ?`,
		OutcomeError,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)

	var sum Summary
	var durationMS int64
	if err := row.Scan(&sum.TotalCalls, &sum.TotalErrors, &durationMS); err != nil {
		return nil, fmt.Errorf("query journal summary: %w", err)
	}
	sum.TotalDuration = time.Duration(durationMS) * time.Millisecond
	return &sum, nil
}

// SummaryByTool returns per-tool aggregated totals for records within
// [start, end), ordered by call count in the returned map's values.
func (s *Store) SummaryByTool(start, end time.Time) (map[string]*Summary, error) {
	rows, err := s.db.Query(
		`SELECT tool, COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(duration_ms), 0)
		 FROM invocations
		 WHERE timestamp >= ? AND timestamp < ?
		 GROUP BY tool`,
		OutcomeError,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("query journal by tool: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*Summary)
	for rows.Next() {
		var tool string
		var sum Summary
		var durationMS int64
		if err := rows.Scan(&tool, &sum.TotalCalls, &sum.TotalErrors, &durationMS); err != nil {
			return nil, fmt.Errorf("scan journal by tool: %w", err)
		}
		sum.TotalDuration = time.Duration(durationMS) * time.Millisecond
		result[tool] = &sum
	}
	return result, rows.Err()
}

// Recent returns the most recent records, newest first, up to limit.
func (s *Store) Recent(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, invocation_id, tool, remote_tool, duration_ms, outcome, COALESCE(error, '')
		 FROM invocations
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent invocations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &ts, &rec.InvocationID, &rec.Tool, &rec.RemoteTool, &durationMS, &rec.Outcome, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan recent invocation: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339, ts)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
