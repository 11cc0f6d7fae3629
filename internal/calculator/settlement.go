// Package calculator derives the settlement from a categorized working set.
package calculator

import (
	"sort"

	"github.com/splitswipe/splitswipe/internal/models"
)

// topSharedLimit caps the "top shared expenses" ranking.
const topSharedLimit = 5

// Buckets holds the working set partitioned by category. Transactions with
// no decision appear in none of them.
type Buckets struct {
	Personal []models.Transaction
	Split50  []models.Transaction
	Split    []models.Transaction
}

// Totals holds the per-bucket sums. Split and Split50 are signed totals
// (credits subtract); Personal is a plain magnitude sum and is
// informational only.
type Totals struct {
	Personal    float64
	Split       float64
	Split50     float64
	PartnerOwes float64
}

// Breakdown holds the two components of the partner's debt.
type Breakdown struct {
	PartnerSplit float64 // partner's share of the ratio-split bucket
	Partner5050  float64 // partner's share of the 50/50 bucket
}

// Settlement is the result of a settlement calculation.
type Settlement struct {
	Buckets   Buckets
	Totals    Totals
	Breakdown Breakdown

	// TopShared is the up-to-five largest shared transactions (split and
	// split50 buckets combined), descending by amount.
	TopShared []models.Transaction
}

// Calculate computes the settlement for the given working set, decisions
// and ratio. It is a pure function and always succeeds: undecided
// transactions are ignored, empty buckets sum to zero, and any ratio in
// [0, 1] is accepted (the product constrains it to [0.5, 0.9] upstream).
//
// Algorithm:
//   - Partition transactions by their decided category.
//   - Signed totals for split and split50: credits subtract, debits add,
//     so a refund reduces net shared expense.
//   - partnerOwes = split_total*(1-ratio) + split50_total*0.5.
func Calculate(txns []models.Transaction, decisions map[int]models.Category, ratio float64) Settlement {
	var b Buckets
	for _, t := range txns {
		switch decisions[t.ID] {
		case models.CategoryPersonal:
			b.Personal = append(b.Personal, t)
		case models.CategorySplit50:
			b.Split50 = append(b.Split50, t)
		case models.CategorySplit:
			b.Split = append(b.Split, t)
		}
	}

	splitTotal := signedTotal(b.Split)
	split50Total := signedTotal(b.Split50)
	partnerSplit := splitTotal * (1 - ratio)
	partner5050 := split50Total * 0.5

	return Settlement{
		Buckets: b,
		Totals: Totals{
			Personal:    plainTotal(b.Personal),
			Split:       splitTotal,
			Split50:     split50Total,
			PartnerOwes: partnerSplit + partner5050,
		},
		Breakdown: Breakdown{
			PartnerSplit: partnerSplit,
			Partner5050:  partner5050,
		},
		TopShared: topShared(b.Split, b.Split50),
	}
}

// signedTotal sums a bucket with the credit convention: money coming in
// subtracts from net expense.
func signedTotal(txns []models.Transaction) float64 {
	var sum float64
	for _, t := range txns {
		if t.IsCredit {
			sum -= t.Amount
		} else {
			sum += t.Amount
		}
	}
	return sum
}

func plainTotal(txns []models.Transaction) float64 {
	var sum float64
	for _, t := range txns {
		sum += t.Amount
	}
	return sum
}

// topShared ranks the combined shared buckets descending by amount. The
// sort is stable so equal amounts keep their concatenation order.
func topShared(split, split50 []models.Transaction) []models.Transaction {
	shared := make([]models.Transaction, 0, len(split)+len(split50))
	shared = append(shared, split...)
	shared = append(shared, split50...)

	sort.SliceStable(shared, func(i, j int) bool {
		return shared[i].Amount > shared[j].Amount
	})

	if len(shared) > topSharedLimit {
		shared = shared[:topSharedLimit]
	}
	return shared
}
