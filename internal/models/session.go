package models

import "fmt"

// Stage is a lifecycle stage of a categorization session.
// Sessions progress strictly forward (upload → confirm → categorizing →
// summary) with two exceptions: undo steps the cursor back within
// categorizing, and reset returns to upload from any stage.
type Stage string

const (
	StageUpload       Stage = "upload"
	StageConfirm      Stage = "confirm"
	StageCategorizing Stage = "categorizing"
	StageSummary      Stage = "summary"
)

// ParseStage validates a raw stage string (e.g. one read back from storage).
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageUpload, StageConfirm, StageCategorizing, StageSummary:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Ratio bounds for the user's share of ratio-split expenses. The partner's
// share is the complement.
const (
	MinRatio     = 0.5
	MaxRatio     = 0.9
	RatioStep    = 0.05
	DefaultRatio = 0.7
)

// Session is one upload-to-summary categorization pass over a statement.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string

	// Stage is the session's current lifecycle stage.
	Stage Stage

	// Cursor is the index of the transaction currently awaiting a decision.
	// Cursor == len(Transactions) means the traversal is complete.
	Cursor int

	// Ratio is the user's share of ratio-split expenses, in
	// [MinRatio, MaxRatio] stepped by RatioStep.
	Ratio float64

	// Transactions is the working set: the filtered, date-sorted output of
	// the statement parser. Never mutated after creation.
	Transactions []Transaction

	// Decisions maps transaction ID to the user's category choice.
	// Sparse: undecided transactions have no entry.
	Decisions map[int]Category

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64
}
