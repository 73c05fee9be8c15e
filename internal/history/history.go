// Package history records dashboard actions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const DefaultDBFileName = "dashboard_history.db"

// Outcome of one dashboard action.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeError   Outcome = "error"
	OutcomeInvalid Outcome = "invalid"
	OutcomeStale   Outcome = "stale"
)

// Entry one recorded action.
type Entry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Capability string    `json:"capability"`
	Tickers    []string  `json:"tickers"`
	Outcome    Outcome   `json:"outcome"`
	ErrorCode  string    `json:"error_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store SQLite-backed action log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// ResolvePath returns p, or p/DefaultDBFileName when p names a directory.
func ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.Ext(p) == "" {
		return filepath.Join(p, DefaultDBFileName)
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, DefaultDBFileName)
	}
	return p
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	path = ResolvePath(path)
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dashboard_actions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			capability TEXT NOT NULL,
			tickers TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_code TEXT,
			duration_ms INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_dashboard_actions_session ON dashboard_actions(session_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_dashboard_actions_created ON dashboard_actions(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts e, filling ID and CreatedAt when unset.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	var errorCode any
	if e.ErrorCode != "" {
		errorCode = e.ErrorCode
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboard_actions (id, session_id, capability, tickers, outcome, error_code, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Capability, strings.Join(e.Tickers, ","), string(e.Outcome), errorCode,
		e.DurationMS, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty sessionID
// returns actions of every session.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, session_id, capability, tickers, outcome, error_code, duration_ms, created_at
FROM dashboard_actions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e         Entry
			tickers   string
			outcome   string
			errorCode sql.NullString
			created   int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Capability, &tickers, &outcome, &errorCode, &e.DurationMS, &created); err != nil {
			return nil, err
		}
		e.Tickers = splitTickers(tickers)
		e.Outcome = Outcome(outcome)
		e.ErrorCode = errorCode.String
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func splitTickers(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
