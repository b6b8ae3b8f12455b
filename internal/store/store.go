// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/mventris/heartlens/internal/domain"
)

// Repository defines the append-only persistence boundary for session
// history. The orchestrator only writes during a session; the read
// methods exist for operational inspection and tests.
type Repository interface {
	// CreateSession records a new session.
	CreateSession(ctx context.Context, session *domain.Session) error

	// AppendMessage records a chat message for a session.
	AppendMessage(ctx context.Context, sessionID string, msg domain.Message) error

	// AppendRedFlag records an accepted red flag for a session.
	AppendRedFlag(ctx context.Context, sessionID string, flag domain.RedFlag) error

	// CompleteSession marks a session complete with its final risk score.
	CompleteSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session row, or nil if it does not exist.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// ListMessages retrieves all messages for a session in insertion order.
	ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// ListRedFlags retrieves all red flags for a session in insertion order.
	ListRedFlags(ctx context.Context, sessionID string) ([]domain.RedFlag, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
