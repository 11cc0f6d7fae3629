// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/splitswipe/splitswipe/internal/models"
	"github.com/splitswipe/splitswipe/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession persists a new session with its working set and any
// pre-seeded decisions.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions (id, stage, cursor, ratio, created_at) VALUES (?, ?, ?, ?, ?)",
		session.ID, string(session.Stage), session.Cursor, session.Ratio, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, t := range session.Transactions {
		var date int64
		if t.DateValid {
			date = t.Date.Unix()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (session_id, id, date, date_valid, description, amount, is_credit, raw_amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID, t.ID, date, boolToInt(t.DateValid), t.Description, t.Amount, boolToInt(t.IsCredit), t.RawAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", t.ID, err)
		}
	}

	for id, category := range session.Decisions {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO decisions (session_id, transaction_id, category) VALUES (?, ?, ?)",
			session.ID, id, string(category),
		)
		if err != nil {
			return fmt.Errorf("failed to insert decision for %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSession retrieves a session, its working set and its decision snapshot.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	var stage string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, stage, cursor, ratio, created_at FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&session.ID, &stage, &session.Cursor, &session.Ratio, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.Stage, err = models.ParseStage(stage)
	if err != nil {
		return nil, fmt.Errorf("failed to read session stage: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, date_valid, description, amount, is_credit, raw_amount
		 FROM transactions WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Transaction
		var date int64
		var dateValid, isCredit int
		if err := rows.Scan(&t.ID, &date, &dateValid, &t.Description, &t.Amount, &isCredit, &t.RawAmount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.DateValid = dateValid != 0
		t.IsCredit = isCredit != 0
		if t.DateValid {
			t.Date = time.Unix(date, 0).UTC()
		}
		session.Transactions = append(session.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	decisionRows, err := s.db.QueryContext(ctx,
		"SELECT transaction_id, category FROM decisions WHERE session_id = ?",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get decisions: %w", err)
	}
	defer decisionRows.Close()

	session.Decisions = make(map[int]models.Category)
	for decisionRows.Next() {
		var id int
		var category string
		if err := decisionRows.Scan(&id, &category); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		session.Decisions[id] = models.Category(category)
	}
	if err := decisionRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}

	return session, nil
}

// SaveProgress updates the session's stage, cursor and ratio.
func (s *SQLiteStore) SaveProgress(ctx context.Context, sessionID string, stage models.Stage, cursor int, ratio float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET stage = ?, cursor = ?, ratio = ? WHERE id = ?",
		string(stage), cursor, ratio, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check progress update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// SaveDecisions replaces the session's persisted decision snapshot.
func (s *SQLiteStore) SaveDecisions(ctx context.Context, sessionID string, decisions map[int]models.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM decisions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear decisions: %w", err)
	}
	for id, category := range decisions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO decisions (session_id, transaction_id, category) VALUES (?, ?, ?)",
			sessionID, id, string(category),
		)
		if err != nil {
			return fmt.Errorf("failed to insert decision for %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteSession removes a session; transactions and decisions cascade.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to check session existence: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
