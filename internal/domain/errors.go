package domain

import (
	"errors"
	"fmt"
)

// Reasons a deck fails id validation. Use errors.Is against a
// *DeckValidationError to tell them apart.
var (
	ErrMissingID   = errors.New("each card must have a non-empty string id")
	ErrDuplicateID = errors.New("duplicate id detected")
)

// DeckValidationError reports the first card that broke the deck id rules.
// It is fatal to the load that produced it.
type DeckValidationError struct {
	Index  int
	ID     string
	Reason error
}

func (e *DeckValidationError) Error() string {
	if errors.Is(e.Reason, ErrDuplicateID) {
		return fmt.Sprintf("deck validation error: %v: %s", e.Reason, e.ID)
	}
	return fmt.Sprintf("deck validation error: %v (card %d)", e.Reason, e.Index)
}

func (e *DeckValidationError) Unwrap() error {
	return e.Reason
}
