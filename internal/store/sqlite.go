package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mventris/heartlens/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		is_complete INTEGER NOT NULL DEFAULT 0,
		completed_at INTEGER,
		risk_score INTEGER
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS red_flags (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		weight REAL NOT NULL,
		detected_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_red_flags_session ON red_flags(session_id, detected_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession records a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	query := `INSERT INTO sessions (id, started_at, is_complete) VALUES (?, ?, 0)`
	if err := s.exec(ctx, query, session.ID, session.StartedAt.Unix()); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// AppendMessage records a chat message for a session.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg domain.Message) error {
	query := `INSERT INTO messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`
	if err := s.exec(ctx, query, msg.ID, sessionID, string(msg.Role), msg.Content, msg.Timestamp.Unix()); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// AppendRedFlag records an accepted red flag for a session.
func (s *SQLiteStore) AppendRedFlag(ctx context.Context, sessionID string, flag domain.RedFlag) error {
	query := `
	INSERT INTO red_flags (id, session_id, category, severity, description, weight, detected_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	err := s.exec(ctx, query,
		flag.ID, sessionID, string(flag.Category), string(flag.Severity),
		flag.Description, flag.Weight, flag.DetectedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append red flag: %w", err)
	}
	return nil
}

// CompleteSession marks a session complete with its final risk score.
func (s *SQLiteStore) CompleteSession(ctx context.Context, session *domain.Session) error {
	if session.CompletedAt == nil {
		return fmt.Errorf("complete session: completed_at not set")
	}
	query := `UPDATE sessions SET is_complete = 1, completed_at = ?, risk_score = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, session.CompletedAt.Unix(), session.RiskScore, session.ID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("complete session: session %s not found", session.ID)
	}
	return nil
}

// GetSession retrieves a session row, or nil if it does not exist.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `SELECT id, started_at, is_complete, completed_at, risk_score FROM sessions WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, sessionID)

	var session domain.Session
	var startedAt int64
	var isComplete int
	var completedAt, riskScore sql.NullInt64

	err := row.Scan(&session.ID, &startedAt, &isComplete, &completedAt, &riskScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	session.StartedAt = time.Unix(startedAt, 0)
	session.Phase = domain.PhaseActive
	if isComplete != 0 {
		session.Phase = domain.PhaseCompleted
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		session.CompletedAt = &t
	}
	session.RiskScore = int(riskScore.Int64)

	return &session, nil
}

// ListMessages retrieves all messages for a session in insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	query := `SELECT id, role, content, timestamp FROM messages WHERE session_id = ? ORDER BY timestamp, id`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role string
		var ts int64
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Role = domain.Role(role)
		msg.Timestamp = time.Unix(ts, 0)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ListRedFlags retrieves all red flags for a session in insertion order.
func (s *SQLiteStore) ListRedFlags(ctx context.Context, sessionID string) ([]domain.RedFlag, error) {
	query := `
	SELECT id, category, severity, description, weight, detected_at
	FROM red_flags WHERE session_id = ? ORDER BY detected_at, id`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query red flags: %w", err)
	}
	defer rows.Close()

	var flags []domain.RedFlag
	for rows.Next() {
		var flag domain.RedFlag
		var category, severity string
		var detectedAt int64
		if err := rows.Scan(&flag.ID, &category, &severity, &flag.Description, &flag.Weight, &detectedAt); err != nil {
			return nil, fmt.Errorf("scan red flag row: %w", err)
		}
		flag.Category = domain.Category(category)
		flag.Severity = domain.Severity(severity)
		flag.DetectedAt = time.Unix(detectedAt, 0)
		flags = append(flags, flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate red flags: %w", err)
	}
	return flags, nil
}

// exec runs a write statement with a single retry on SQLite lock
// contention.
func (s *SQLiteStore) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	if isSQLiteConflict(err) {
		time.Sleep(50 * time.Millisecond)
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	return err
}

// isSQLiteConflict reports whether err is a SQLITE_BUSY or "database is
// locked" concurrency error that warrants a retry.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
