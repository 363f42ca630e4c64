package sample

import (
	"github.com/conorfennell/flashdeck/internal/domain"
)

// PriorityFunc scores a card; higher scores are studied first.
type PriorityFunc func(card domain.CardItem) float64

// FailureRatio is failure / (success + failure), or 0 when the card has no
// attempts. Untouched cards therefore rank lowest, not highest.
func FailureRatio(success, failure int) float64 {
	total := success + failure
	if total <= 0 {
		return 0
	}
	return float64(failure) / float64(total)
}

// RatioFromRecords builds a PriorityFunc that reads counts from a stats
// snapshot. Cards missing from the snapshot score 0.
func RatioFromRecords(records map[string]domain.CardRecord) PriorityFunc {
	return func(card domain.CardItem) float64 {
		rec := records[card.ID]
		return FailureRatio(rec.Success, rec.Failure)
	}
}
