// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/splitswipe/splitswipe/internal/models"
)

// Store defines the interface for session storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateSession persists a new session with its full working set.
	// The session.ID and CreatedAt fields are populated by the store if
	// unset.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session, its working set and its decision
	// snapshot. Returns an error if the session is not found.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// SaveProgress updates the session's stage, cursor and ratio.
	SaveProgress(ctx context.Context, sessionID string, stage models.Stage, cursor int, ratio float64) error

	// SaveDecisions replaces the session's persisted decision snapshot.
	// Called after every decision-store mutation (save-on-change).
	SaveDecisions(ctx context.Context, sessionID string, decisions map[int]models.Category) error

	// DeleteSession removes a session and everything attached to it.
	DeleteSession(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}
