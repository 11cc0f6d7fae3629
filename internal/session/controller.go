// Package session drives one categorization pass as an explicit state
// machine: upload → confirm → categorizing → summary, with undo stepping
// the cursor back and reset returning to upload from any stage.
//
// The controller has no transport or rendering dependencies. The service
// layer reconstructs it from persisted state on every request, applies one
// action, and persists the result.
package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/splitswipe/splitswipe/internal/calculator"
	"github.com/splitswipe/splitswipe/internal/decision"
	"github.com/splitswipe/splitswipe/internal/models"
)

// ErrWrongStage is returned when an action is not valid in the session's
// current stage.
var ErrWrongStage = errors.New("action not valid in current stage")

// Signal is a discrete categorization input as classified by the
// presentation layer (swipe direction, arrow key, or button).
type Signal string

const (
	SignalLeft  Signal = "left"  // swipe left: personal
	SignalRight Signal = "right" // swipe right: ratio split
	SignalUp    Signal = "up"    // swipe up: 50/50 split
)

// Category maps a signal to its decision category.
func (s Signal) Category() (models.Category, error) {
	switch s {
	case SignalLeft:
		return models.CategoryPersonal, nil
	case SignalRight:
		return models.CategorySplit, nil
	case SignalUp:
		return models.CategorySplit50, nil
	}
	return "", fmt.Errorf("unknown signal %q", string(s))
}

// ClampRatio snaps a requested ratio to the supported range:
// [0.5, 0.9] in steps of 0.05.
func ClampRatio(r float64) float64 {
	percent := int(math.Round(r*100/5)) * 5
	if percent < int(models.MinRatio*100) {
		percent = int(models.MinRatio * 100)
	}
	if percent > int(models.MaxRatio*100) {
		percent = int(models.MaxRatio * 100)
	}
	return float64(percent) / 100
}

// Controller is the navigation state machine for one session.
// It is not safe for concurrent use; the service layer serializes actions.
type Controller struct {
	txns      []models.Transaction
	decisions *decision.Store
	cursor    int
	stage     models.Stage
	ratio     float64
}

// New returns a controller in the upload stage awaiting a statement.
func New() *Controller {
	return &Controller{
		decisions: decision.New(),
		stage:     models.StageUpload,
		ratio:     models.DefaultRatio,
	}
}

// Resume reconstructs a controller from persisted session state. The
// decision snapshot is restored as-is; stale ids it may contain are
// harmless (never read by the calculator).
func Resume(s *models.Session) (*Controller, error) {
	if _, err := models.ParseStage(string(s.Stage)); err != nil {
		return nil, err
	}
	if s.Cursor < 0 || s.Cursor > len(s.Transactions) {
		return nil, fmt.Errorf("cursor %d out of range [0, %d]", s.Cursor, len(s.Transactions))
	}
	c := &Controller{
		txns:      s.Transactions,
		decisions: decision.New(),
		cursor:    s.Cursor,
		stage:     s.Stage,
		ratio:     ClampRatio(s.Ratio),
	}
	c.decisions.Restore(s.Decisions)
	return c, nil
}

// LoadStatement accepts a parsed working set and moves to the confirm
// stage. An empty working set still moves forward; confirming it then
// completes immediately.
func (c *Controller) LoadStatement(txns []models.Transaction) error {
	if c.stage != models.StageUpload {
		return fmt.Errorf("%w: load statement in %s", ErrWrongStage, c.stage)
	}
	c.txns = txns
	c.cursor = 0
	c.stage = models.StageConfirm
	return nil
}

// Confirm starts categorization. With nothing to categorize the traversal
// is already complete, so the session goes straight to summary.
func (c *Controller) Confirm() error {
	if c.stage != models.StageConfirm {
		return fmt.Errorf("%w: confirm in %s", ErrWrongStage, c.stage)
	}
	c.cursor = 0
	if len(c.txns) == 0 {
		c.stage = models.StageSummary
	} else {
		c.stage = models.StageCategorizing
	}
	return nil
}

// Decide records the category for the transaction at the cursor and
// advances. Deciding the last transaction moves the session to summary.
func (c *Controller) Decide(category models.Category) error {
	if c.stage != models.StageCategorizing {
		return fmt.Errorf("%w: decide in %s", ErrWrongStage, c.stage)
	}
	if _, err := models.ParseCategory(string(category)); err != nil {
		return err
	}
	c.decisions.Decide(c.txns[c.cursor].ID, category)
	c.cursor++
	if c.cursor == len(c.txns) {
		c.stage = models.StageSummary
	}
	return nil
}

// Apply translates a discrete signal into a decision.
func (c *Controller) Apply(sig Signal) error {
	category, err := sig.Category()
	if err != nil {
		return err
	}
	return c.Decide(category)
}

// Undo steps the cursor back one transaction and removes its decision,
// restoring the state exactly as before the corresponding Decide. At
// cursor 0 it is a no-op. The stage does not change.
func (c *Controller) Undo() error {
	if c.stage != models.StageCategorizing {
		return fmt.Errorf("%w: undo in %s", ErrWrongStage, c.stage)
	}
	if c.cursor == 0 {
		return nil
	}
	c.cursor--
	c.decisions.Undo(c.txns[c.cursor].ID)
	return nil
}

// Reset clears everything and returns to the upload stage. Valid from any
// stage.
func (c *Controller) Reset() {
	c.txns = nil
	c.cursor = 0
	c.decisions.Clear()
	c.stage = models.StageUpload
}

// SetRatio updates the ratio, clamped to the supported stepped range.
func (c *Controller) SetRatio(r float64) {
	c.ratio = ClampRatio(r)
}

// Stage returns the current lifecycle stage.
func (c *Controller) Stage() models.Stage { return c.stage }

// Cursor returns the index of the transaction awaiting a decision.
func (c *Controller) Cursor() int { return c.cursor }

// Total returns the working-set size.
func (c *Controller) Total() int { return len(c.txns) }

// Ratio returns the user's configured share of ratio-split expenses.
func (c *Controller) Ratio() float64 { return c.ratio }

// Transactions returns the working set.
func (c *Controller) Transactions() []models.Transaction { return c.txns }

// Current returns the transaction at the cursor, if the traversal is not
// complete.
func (c *Controller) Current() (models.Transaction, bool) {
	if c.cursor >= len(c.txns) {
		return models.Transaction{}, false
	}
	return c.txns[c.cursor], true
}

// Snapshot returns a copy of the decision map for persisting.
func (c *Controller) Snapshot() map[int]models.Category {
	return c.decisions.Snapshot()
}

// Summary derives the settlement from the current decisions. Pure: safe to
// call at any time, never cached.
func (c *Controller) Summary() calculator.Settlement {
	return calculator.Calculate(c.txns, c.decisions.Snapshot(), c.ratio)
}
