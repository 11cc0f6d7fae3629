package decision

import (
	"testing"

	"github.com/splitswipe/splitswipe/internal/models"
)

func TestDecideAndGet(t *testing.T) {
	s := New()

	s.Decide(0, models.CategoryPersonal)
	s.Decide(3, models.CategorySplit)

	if c, ok := s.Get(0); !ok || c != models.CategoryPersonal {
		t.Errorf("Get(0) = %v, %v; want personal, true", c, ok)
	}
	if c, ok := s.Get(3); !ok || c != models.CategorySplit {
		t.Errorf("Get(3) = %v, %v; want split, true", c, ok)
	}
	if _, ok := s.Get(1); ok {
		t.Error("Get(1) should report undecided")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestDecideOverwrites(t *testing.T) {
	s := New()

	s.Decide(5, models.CategorySplit50)
	s.Decide(5, models.CategoryPersonal)

	if c, _ := s.Get(5); c != models.CategoryPersonal {
		t.Errorf("re-decision should overwrite, got %v", c)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d after overwrite, want 1", s.Len())
	}
}

func TestUndo(t *testing.T) {
	s := New()
	s.Decide(2, models.CategorySplit)

	s.Undo(2)
	if _, ok := s.Get(2); ok {
		t.Error("Undo should remove the entry")
	}

	// Undoing an absent id is a no-op.
	s.Undo(99)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.Decide(0, models.CategoryPersonal)
	s.Decide(1, models.CategorySplit50)

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", s.Len())
	}

	// Store must remain usable after Clear.
	s.Decide(0, models.CategorySplit)
	if c, ok := s.Get(0); !ok || c != models.CategorySplit {
		t.Errorf("store unusable after Clear: got %v, %v", c, ok)
	}
}

func TestRestoreToleratesStaleIDs(t *testing.T) {
	s := New()
	s.Decide(0, models.CategoryPersonal)

	// Snapshot from a previous run, referencing ids 40/41 that are not in
	// the current working set.
	s.Restore(map[int]models.Category{
		1:  models.CategorySplit,
		40: models.CategorySplit50,
		41: models.CategoryPersonal,
	})

	if _, ok := s.Get(0); ok {
		t.Error("Restore should replace prior content entirely")
	}
	if c, ok := s.Get(1); !ok || c != models.CategorySplit {
		t.Errorf("Get(1) after restore = %v, %v", c, ok)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d after restore, want 3", s.Len())
	}
}

func TestRestoreNil(t *testing.T) {
	s := New()
	s.Decide(0, models.CategoryPersonal)

	s.Restore(nil)
	if s.Len() != 0 {
		t.Errorf("Len = %d after nil restore, want 0", s.Len())
	}
	s.Decide(1, models.CategorySplit)
	if s.Len() != 1 {
		t.Error("store unusable after nil restore")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Decide(0, models.CategorySplit)

	snap := s.Snapshot()
	snap[0] = models.CategoryPersonal
	snap[1] = models.CategorySplit50

	if c, _ := s.Get(0); c != models.CategorySplit {
		t.Error("mutating a snapshot must not affect the store")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}
