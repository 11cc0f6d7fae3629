// Package decision tracks the user's per-transaction category choices for
// one session. The store is a sparse transaction-id → category mapping with
// reversible history: entries can be set, removed (undo), wholesale cleared,
// or replaced from a persisted snapshot.
//
// The store is persistence-agnostic. Callers snapshot it after every
// mutation and hand the snapshot to storage; Restore accepts any well-formed
// snapshot, including one referencing transaction ids that no longer exist
// in the current working set (stale entries are simply never read by the
// settlement calculator).
package decision

import "github.com/splitswipe/splitswipe/internal/models"

// Store is a mutable transaction-id → category mapping.
// It is not safe for concurrent use; the session service serializes access.
type Store struct {
	entries map[int]models.Category
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[int]models.Category)}
}

// Decide sets or overwrites the category for a transaction.
func (s *Store) Decide(transactionID int, category models.Category) {
	s.entries[transactionID] = category
}

// Undo removes the entry for a transaction. No-op if absent.
func (s *Store) Undo(transactionID int) {
	delete(s.entries, transactionID)
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.entries = make(map[int]models.Category)
}

// Restore replaces the store's content with the given snapshot.
// A nil snapshot clears the store.
func (s *Store) Restore(snapshot map[int]models.Category) {
	s.entries = make(map[int]models.Category, len(snapshot))
	for id, c := range snapshot {
		s.entries[id] = c
	}
}

// Snapshot returns a copy of the current content, suitable for persisting.
func (s *Store) Snapshot() map[int]models.Category {
	out := make(map[int]models.Category, len(s.entries))
	for id, c := range s.entries {
		out[id] = c
	}
	return out
}

// Get returns the category for a transaction, if decided.
func (s *Store) Get(transactionID int) (models.Category, bool) {
	c, ok := s.entries[transactionID]
	return c, ok
}

// Len returns the number of decided transactions.
func (s *Store) Len() int {
	return len(s.entries)
}
