package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// CardItem is a single flashcard as it appears in a deck file.
type CardItem struct {
	ID              string `json:"id"`
	Japanese        string `json:"japanese"`
	Hiragana        string `json:"hiragana"`
	English         string `json:"english"`
	JapaneseExample string `json:"japanese_example,omitempty"`
	EnglishExample  string `json:"english_example,omitempty"`

	// Extra holds deck file fields CardItem does not model. They are
	// written back unchanged when the card is encoded.
	Extra map[string]json.RawMessage `json:"-"`
}

type cardFields CardItem

var knownCardFields = map[string]func(*CardItem) *string{
	"id":               func(c *CardItem) *string { return &c.ID },
	"japanese":         func(c *CardItem) *string { return &c.Japanese },
	"hiragana":         func(c *CardItem) *string { return &c.Hiragana },
	"english":          func(c *CardItem) *string { return &c.English },
	"japanese_example": func(c *CardItem) *string { return &c.JapaneseExample },
	"english_example":  func(c *CardItem) *string { return &c.EnglishExample },
}

// UnmarshalJSON decodes a card object. An id that is not a string decodes
// as blank, so id validation reports it as missing.
func (c *CardItem) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var card CardItem
	for key, value := range raw {
		field, ok := knownCardFields[key]
		if !ok {
			if card.Extra == nil {
				card.Extra = make(map[string]json.RawMessage)
			}
			card.Extra[key] = value
			continue
		}
		if err := json.Unmarshal(value, field(&card)); err != nil {
			if key == "id" {
				*field(&card) = ""
				continue
			}
			return fmt.Errorf("card field %q: %w", key, err)
		}
	}
	*c = card
	return nil
}

// MarshalJSON encodes the modelled fields followed by Extra in key order.
// Markup in card text is written as is, not HTML-escaped.
func (c CardItem) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cardFields(c)); err != nil {
		return nil, err
	}
	out := bytes.Clone(bytes.TrimSuffix(bytes.TrimSpace(buf.Bytes()), []byte("}")))
	for _, key := range slices.Sorted(maps.Keys(c.Extra)) {
		if _, known := knownCardFields[key]; known {
			continue
		}
		buf.Reset()
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		out = append(out, ',')
		out = append(out, bytes.TrimSpace(buf.Bytes())...)
		out = append(out, ':')
		out = append(out, c.Extra[key]...)
	}
	return append(out, '}'), nil
}

// CardCounts holds the attempt counters for a card.
type CardCounts struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// CardRecord is the persisted per-card aggregate.
// An unseen id reads as the zero value: {0, 0, false}.
type CardRecord struct {
	Success   int  `json:"success"`
	Failure   int  `json:"failure"`
	Difficult bool `json:"difficult"`
}

// Counts returns the attempt counters of the record.
func (r CardRecord) Counts() CardCounts {
	return CardCounts{Success: r.Success, Failure: r.Failure}
}

// IDSet is a set of card ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add puts id in the set.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}
