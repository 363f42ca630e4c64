package deck

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// AssignIDs returns a copy of cards in which every blank id is replaced by
// "<deckName>-NNNN" (1-based position). An id that repeats an earlier one
// gets the first free "-NN" suffix.
func AssignIDs(deckName string, cards []domain.CardItem) []domain.CardItem {
	seen := make(map[string]struct{}, len(cards))
	out := make([]domain.CardItem, len(cards))
	for i, c := range cards {
		if strings.TrimSpace(c.ID) == "" {
			c.ID = fmt.Sprintf("%s-%04d", deckName, i+1)
		}
		if _, dup := seen[c.ID]; dup {
			n := 1
			candidate := fmt.Sprintf("%s-%02d", c.ID, n)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				n++
				candidate = fmt.Sprintf("%s-%02d", c.ID, n)
			}
			c.ID = candidate
		}
		seen[c.ID] = struct{}{}
		out[i] = c
	}
	return out
}

// AssignIDsInDir runs AssignIDs over every deck file in dir and rewrites
// each file. It returns the number of cards per deck.
func AssignIDsInDir(dir string) (map[string]int, error) {
	src := NewDirSource(dir)
	keys, err := src.Keys()
	if err != nil {
		return nil, err
	}
	updated := make(map[string]int, len(keys))
	for _, key := range keys {
		cards, err := src.Read(key)
		if err != nil {
			return updated, err
		}
		name := strings.TrimSuffix(key, filepath.Ext(key))
		if err := src.Replace(key, AssignIDs(name, cards)); err != nil {
			return updated, err
		}
		updated[key] = len(cards)
		slog.Info("Updated ids", "deck", key, "cards", len(cards))
	}
	return updated, nil
}
