package models

import (
	"fmt"
	"time"
)

// Category is the user's classification of a transaction.
type Category string

const (
	// CategoryPersonal marks a transaction as the user's own expense.
	// It never contributes to the settlement.
	CategoryPersonal Category = "personal"

	// CategorySplit50 marks a transaction as split equally with the partner.
	CategorySplit50 Category = "split50"

	// CategorySplit marks a transaction as split by the session's
	// configured ratio (user's share = ratio, partner's share = 1-ratio).
	CategorySplit Category = "split"
)

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryPersonal, CategorySplit50, CategorySplit:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Transaction is a normalized bank-statement row. Instances are created by
// the statement parser and are immutable afterwards.
type Transaction struct {
	// ID is the transaction's position in the filtered, sorted working set
	// (0-based). It is unique within one parse batch but not stable across
	// re-parses of the same file.
	ID int

	// Date is the transaction date. Only meaningful when DateValid is true.
	Date time.Time

	// DateValid reports whether Date was parsed successfully. Transactions
	// with invalid dates remain in the working set and sort after all
	// dated ones.
	DateValid bool

	// Description is the statement's free-text label for the row.
	Description string

	// Amount is the non-negative magnitude of the transaction.
	Amount float64

	// IsCredit is true when the original signed amount was positive
	// (money coming in, e.g. a refund).
	IsCredit bool

	// RawAmount is the original signed value as it appeared on the
	// statement, retained for traceability.
	RawAmount float64
}
