// Package store persists tool invocation history to SQLite.
//
// History is diagnostic only: the registry's metadata file stays the source
// of truth for usage counters.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"toolforge/internal/logging"
)

// HistoryStore records every invocation.
type HistoryStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Invocation is one recorded tool call.
type Invocation struct {
	ID         int64
	CallID     string
	ToolName   string
	Origin     string
	Args       string // JSON
	Result     string // JSON, empty on failure
	Error      string
	ErrorKind  string
	Success    bool
	DurationMs int64
	CreatedAt  time.Time
}

// ToolStats aggregates invocations of one tool.
type ToolStats struct {
	ToolName      string
	Count         int
	SuccessCount  int
	AvgDurationMs float64
}

// HistoryStats summarizes the whole store.
type HistoryStats struct {
	TotalInvocations int
	SuccessCount     int
	FailureCount     int
	ByTool           map[string]ToolStats
}

// NewHistoryStore opens (or creates) the history database. ":memory:" is
// accepted for tests.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	logging.StoreDebug("Initializing HistoryStore at path: %s", dbPath)

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &HistoryStore{db: db, dbPath: dbPath}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize HistoryStore schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("HistoryStore initialized at %s", dbPath)
	return s, nil
}

func (s *HistoryStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		call_id TEXT UNIQUE NOT NULL,
		tool_name TEXT NOT NULL,
		origin TEXT NOT NULL DEFAULT 'unknown',
		args TEXT,
		result TEXT,
		error TEXT,
		error_kind TEXT,
		success INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool_name);
	CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists one invocation. A zero CreatedAt is set to now.
func (s *HistoryStore) Record(inv Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	successInt := 0
	if inv.Success {
		successInt = 1
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO invocations
		(call_id, tool_name, origin, args, result, error, error_kind, success, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.CallID, inv.ToolName, inv.Origin, inv.Args, inv.Result, inv.Error, inv.ErrorKind,
		successInt, inv.DurationMs, inv.CreatedAt.UnixMilli(),
	)
	if err != nil {
		logging.StoreError("Failed to record invocation %s: %v", inv.CallID, err)
		return err
	}

	logging.StoreDebug("Recorded invocation: %s (tool=%s, success=%v)", inv.CallID, inv.ToolName, inv.Success)
	return nil
}

const selectInvocation = `
	SELECT id, call_id, tool_name, origin, args, result, error, error_kind,
	       success, duration_ms, created_at
	FROM invocations`

// GetByCallID retrieves an invocation by its call ID.
func (s *HistoryStore) GetByCallID(callID string) (*Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(selectInvocation+` WHERE call_id = ?`, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invs, err := scanInvocations(rows)
	if err != nil {
		return nil, err
	}
	if len(invs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &invs[0], nil
}

// Recent retrieves the N most recent invocations, newest first.
func (s *HistoryStore) Recent(limit int) ([]Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(selectInvocation+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// ByTool retrieves the N most recent invocations of one tool.
func (s *HistoryStore) ByTool(toolName string, limit int) ([]Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(selectInvocation+` WHERE tool_name = ? ORDER BY id DESC LIMIT ?`, toolName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// Stats returns aggregate statistics.
func (s *HistoryStore) Stats() (*HistoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &HistoryStats{ByTool: make(map[string]ToolStats)}

	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
		FROM invocations`)
	if err := row.Scan(&stats.TotalInvocations, &stats.SuccessCount, &stats.FailureCount); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT tool_name, COUNT(*), SUM(success), AVG(duration_ms)
		FROM invocations GROUP BY tool_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts ToolStats
		if err := rows.Scan(&ts.ToolName, &ts.Count, &ts.SuccessCount, &ts.AvgDurationMs); err != nil {
			return nil, err
		}
		stats.ByTool[ts.ToolName] = ts
	}
	return stats, rows.Err()
}

// Prune keeps the newest keep invocations and deletes the rest.
func (s *HistoryStore) Prune(keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM invocations WHERE id NOT IN (
			SELECT id FROM invocations ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Store("Pruned %d invocation records (kept %d)", n, keep)
	}
	return n, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		logging.Store("Closing HistoryStore at %s", s.dbPath)
		return s.db.Close()
	}
	return nil
}

func scanInvocations(rows *sql.Rows) ([]Invocation, error) {
	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var successInt int
		var createdMs int64
		var args, result, errMsg, errKind sql.NullString

		if err := rows.Scan(
			&inv.ID, &inv.CallID, &inv.ToolName, &inv.Origin, &args, &result,
			&errMsg, &errKind, &successInt, &inv.DurationMs, &createdMs,
		); err != nil {
			return nil, err
		}
		inv.Args = args.String
		inv.Result = result.String
		inv.Error = errMsg.String
		inv.ErrorKind = errKind.String
		inv.Success = successInt == 1
		inv.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, inv)
	}
	return out, rows.Err()
}
