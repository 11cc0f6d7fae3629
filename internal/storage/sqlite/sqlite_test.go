package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/splitswipe/splitswipe/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitswipe-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSession() *models.Session {
	return &models.Session{
		Stage:  models.StageConfirm,
		Cursor: 0,
		Ratio:  0.7,
		Transactions: []models.Transaction{
			{
				ID:          0,
				Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				DateValid:   true,
				Description: "RENT",
				Amount:      8000,
				RawAmount:   -8000,
			},
			{
				ID:          1,
				Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
				DateValid:   true,
				Description: "REFUND",
				Amount:      120,
				IsCredit:    true,
				RawAmount:   120,
			},
			{
				ID:          2,
				Description: "UNDATED",
				Amount:      30,
				RawAmount:   -30,
			},
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateSession generates ID and CreatedAt", func(t *testing.T) {
		session := testSession()
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if session.ID == "" {
			t.Error("Expected session ID to be generated")
		}
		if session.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetSession round-trips the working set", func(t *testing.T) {
		original := testSession()
		if err := store.CreateSession(ctx, original); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}

		if retrieved.Stage != models.StageConfirm {
			t.Errorf("Stage = %s, want confirm", retrieved.Stage)
		}
		if retrieved.Ratio != 0.7 {
			t.Errorf("Ratio = %v, want 0.7", retrieved.Ratio)
		}
		if len(retrieved.Transactions) != 3 {
			t.Fatalf("Transactions count = %d, want 3", len(retrieved.Transactions))
		}

		first := retrieved.Transactions[0]
		if first.Description != "RENT" || first.Amount != 8000 || first.RawAmount != -8000 {
			t.Errorf("transaction 0 mismatch: %+v", first)
		}
		if !first.Date.Equal(original.Transactions[0].Date) {
			t.Errorf("Date = %v, want %v", first.Date, original.Transactions[0].Date)
		}
		if !retrieved.Transactions[1].IsCredit {
			t.Error("transaction 1 should be a credit")
		}
		if retrieved.Transactions[2].DateValid {
			t.Error("transaction 2 should keep DateValid=false")
		}
	})

	t.Run("GetSession returns error for nonexistent session", func(t *testing.T) {
		if _, err := store.GetSession(ctx, "nonexistent-id"); err == nil {
			t.Error("Expected error for nonexistent session, got nil")
		}
	})

	t.Run("SaveProgress updates stage, cursor and ratio", func(t *testing.T) {
		session := testSession()
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		if err := store.SaveProgress(ctx, session.ID, models.StageCategorizing, 2, 0.85); err != nil {
			t.Fatalf("SaveProgress failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if retrieved.Stage != models.StageCategorizing || retrieved.Cursor != 2 || retrieved.Ratio != 0.85 {
			t.Errorf("progress not saved: stage=%s cursor=%d ratio=%v",
				retrieved.Stage, retrieved.Cursor, retrieved.Ratio)
		}
	})

	t.Run("SaveProgress on missing session errors", func(t *testing.T) {
		if err := store.SaveProgress(ctx, "nope", models.StageSummary, 0, 0.7); err == nil {
			t.Error("Expected error for missing session")
		}
	})

	t.Run("SaveDecisions replaces the snapshot", func(t *testing.T) {
		session := testSession()
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		first := map[int]models.Category{
			0: models.CategoryPersonal,
			1: models.CategorySplit,
		}
		if err := store.SaveDecisions(ctx, session.ID, first); err != nil {
			t.Fatalf("SaveDecisions failed: %v", err)
		}

		// An undo shrinks the snapshot; the replacement must not keep
		// the removed entry.
		second := map[int]models.Category{0: models.CategoryPersonal}
		if err := store.SaveDecisions(ctx, session.ID, second); err != nil {
			t.Fatalf("SaveDecisions failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if len(retrieved.Decisions) != 1 {
			t.Fatalf("Decisions count = %d, want 1", len(retrieved.Decisions))
		}
		if retrieved.Decisions[0] != models.CategoryPersonal {
			t.Errorf("decision 0 = %v, want personal", retrieved.Decisions[0])
		}
	})

	t.Run("DeleteSession cascades", func(t *testing.T) {
		session := testSession()
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if err := store.SaveDecisions(ctx, session.ID, map[int]models.Category{0: models.CategorySplit}); err != nil {
			t.Fatalf("SaveDecisions failed: %v", err)
		}

		if err := store.DeleteSession(ctx, session.ID); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		if _, err := store.GetSession(ctx, session.ID); err == nil {
			t.Error("Expected error after delete, got nil")
		}
		if err := store.DeleteSession(ctx, session.ID); err == nil {
			t.Error("Expected error deleting twice, got nil")
		}
	})
}
