// Package deck loads flashcard decks: JSON arrays of cards stored one deck
// per file in a directory. A deck's key is its file name.
package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conorfennell/flashdeck/internal/cardid"
	"github.com/conorfennell/flashdeck/internal/domain"
)

const deckExt = ".json"

var (
	ErrDeckNotFound    = errors.New("deck not found")
	ErrInvalidDeckName = errors.New("invalid deck name")
	ErrIndexOutOfRange = errors.New("card index out of range")
)

// Source enumerates and loads decks.
type Source interface {
	Keys() ([]string, error)
	Load(key string) ([]domain.CardItem, error)
}

// DirSource serves decks from the *.json files of one directory.
type DirSource struct {
	Dir string
}

// NewDirSource returns a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// IsDeckFile reports whether name looks like a deck file.
func IsDeckFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), deckExt)
}

func (s *DirSource) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.ContainsAny(key, `/\`) || !IsDeckFile(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDeckName, key)
	}
	return filepath.Join(s.Dir, key), nil
}

// Keys lists the deck files in the directory, sorted by name.
func (s *DirSource) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks in %s: %w", s.Dir, err)
	}
	var keys []string
	for _, e := range entries {
		if !e.IsDir() && IsDeckFile(e.Name()) {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Read parses a deck file without checking ids.
func (s *DirSource) Read(key string) ([]domain.CardItem, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	cards, err := ParseFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, key)
		}
		return nil, fmt.Errorf("failed to read deck %s: %w", key, err)
	}
	return cards, nil
}

// Load parses a deck and checks its ids. A bad id yields a
// *domain.DeckValidationError.
func (s *DirSource) Load(key string) ([]domain.CardItem, error) {
	cards, err := s.Read(key)
	if err != nil {
		return nil, err
	}
	if err := cardid.ValidateIDs(cards); err != nil {
		return nil, fmt.Errorf("deck %s: %w", key, err)
	}
	return cards, nil
}

// DeleteCard removes the card at index from the deck file and returns the
// remaining cards.
func (s *DirSource) DeleteCard(key string, index int) ([]domain.CardItem, error) {
	cards, err := s.Read(key)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cards) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(cards))
	}
	cards = append(cards[:index], cards[index+1:]...)
	if err := s.Replace(key, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Replace overwrites the deck file with cards.
func (s *DirSource) Replace(key string, cards []domain.CardItem) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	return writeFile(path, cards)
}

// writeFile replaces path through a temporary file so readers never see a
// partial deck. An existing file keeps its mode; a new one gets 0644.
func writeFile(path string, cards []domain.CardItem) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".deck-*")
	if err != nil {
		return fmt.Errorf("failed to write deck %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write deck %s: %w", path, err)
	}

	if err := Encode(tmp, cards); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write deck %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write deck %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write deck %s: %w", path, err)
	}
	return nil
}

// LoadAll loads every deck of src in key order and dedupes the combined
// cards. Any deck that fails to load fails the whole call.
func LoadAll(src Source) ([]domain.CardItem, error) {
	keys, err := src.Keys()
	if err != nil {
		return nil, err
	}
	var all []domain.CardItem
	for _, key := range keys {
		cards, err := src.Load(key)
		if err != nil {
			return nil, err
		}
		all = append(all, cards...)
	}
	return cardid.Dedupe(all), nil
}
