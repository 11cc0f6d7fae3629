// Package statement converts raw bank-statement rows into the normalized,
// ordered transaction working set that the rest of the system operates on.
package statement

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/splitswipe/splitswipe/internal/models"
)

// Record is one raw statement row, keyed by header name. Cell values are
// kept as strings; normalization happens in Parse.
type Record map[string]string

// Column name variants recognized across bank exports, tried in order.
var (
	amountColumns      = []string{"Amount", "amount"}
	dateColumns        = []string{"Value Date", "date", "Date"}
	descriptionColumns = []string{"Description", "description"}
)

// dateLayouts are the date formats accepted across bank exports.
// Day-first for slash/dash dates, since that is what the supported
// statement exports use.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2/1/2006",
	"2-1-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Parse converts raw records into the working set: rows with a missing,
// non-numeric or zero amount are dropped, the rest are normalized and
// sorted ascending by date (stable, so rows on the same date keep their
// statement order). Rows whose date cannot be parsed stay in the set,
// flagged DateValid=false, and sort after every dated row.
//
// IDs are assigned 0..N-1 over the filtered, sorted output.
func Parse(records []Record) []models.Transaction {
	txns := make([]models.Transaction, 0, len(records))
	for _, rec := range records {
		raw, err := strconv.ParseFloat(strings.TrimSpace(pick(rec, amountColumns)), 64)
		if err != nil || math.IsNaN(raw) || raw == 0 {
			continue
		}

		date, ok := parseDate(pick(rec, dateColumns))
		txns = append(txns, models.Transaction{
			Date:        date,
			DateValid:   ok,
			Description: pick(rec, descriptionColumns),
			Amount:      math.Abs(raw),
			IsCredit:    raw > 0,
			RawAmount:   raw,
		})
	}

	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if a.DateValid != b.DateValid {
			return a.DateValid
		}
		if !a.DateValid {
			return false
		}
		return a.Date.Before(b.Date)
	})

	for i := range txns {
		txns[i].ID = i
	}
	return txns
}

// pick returns the first non-empty value among the given column variants.
func pick(rec Record, columns []string) string {
	for _, c := range columns {
		if v, ok := rec[c]; ok && v != "" {
			return v
		}
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
