// Package cardid holds the rules that decide when two cards are the same
// card: the id invariants of a loaded deck and the cross-deck dedup filter.
package cardid

import (
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Normalize returns the form of a text field used for dedup comparison.
func Normalize(field string) string {
	return strings.TrimSpace(field)
}

// seenSet records the non-empty normalized values of one field.
type seenSet map[string]struct{}

func (s seenSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s seenSet) mark(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

// Dedupe drops every card whose japanese, hiragana or english value was
// already seen on an earlier kept card. Each field is compared only against
// values of the same field. Empty values are never recorded, so blank fields
// never cause a collision. First occurrence wins and order is preserved.
func Dedupe(cards []domain.CardItem) []domain.CardItem {
	seenJ, seenH, seenE := seenSet{}, seenSet{}, seenSet{}
	out := make([]domain.CardItem, 0, len(cards))
	for _, c := range cards {
		j := Normalize(c.Japanese)
		h := Normalize(c.Hiragana)
		e := Normalize(c.English)
		if seenJ.has(j) || seenH.has(h) || seenE.has(e) {
			continue
		}
		out = append(out, c)
		seenJ.mark(j)
		seenH.mark(h)
		seenE.mark(e)
	}
	return out
}

// ValidateIDs checks that every card has a non-blank id and that no id
// repeats. The first violation in input order is returned as a
// *domain.DeckValidationError; for a single card the missing-id check runs
// before the duplicate check.
func ValidateIDs(cards []domain.CardItem) error {
	seen := make(map[string]struct{}, len(cards))
	for i, c := range cards {
		if strings.TrimSpace(c.ID) == "" {
			return &domain.DeckValidationError{Index: i, ID: c.ID, Reason: domain.ErrMissingID}
		}
		if _, dup := seen[c.ID]; dup {
			return &domain.DeckValidationError{Index: i, ID: c.ID, Reason: domain.ErrDuplicateID}
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
