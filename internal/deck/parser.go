package deck

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// ParseFile reads a deck file from the given path.
func ParseFile(path string) ([]domain.CardItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a deck, a JSON array of card objects, from r. Ids are not
// checked here; see cardid.ValidateIDs. A non-string id parses as blank.
func Parse(r io.Reader) ([]domain.CardItem, error) {
	var cards []domain.CardItem
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cards); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}
	if cards == nil {
		return nil, fmt.Errorf("failed to decode deck: expected a JSON array")
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to decode deck: trailing data after array")
	}
	return cards, nil
}

// Encode writes cards as an indented JSON array followed by a newline.
// Card text may hold markup, so HTML characters are not escaped.
func Encode(w io.Writer, cards []domain.CardItem) error {
	if cards == nil {
		cards = []domain.CardItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cards); err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	return nil
}
