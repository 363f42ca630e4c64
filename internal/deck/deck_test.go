package deck

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func writeDeck(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func cardIDs(cards []domain.CardItem) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectErr     bool
		expectedFirst domain.CardItem
	}{
		{
			name:          "Single card with examples",
			input:         `[{"id":"n5-0001","japanese":"猫","hiragana":"ねこ","english":"cat","japanese_example":"猫がいる","english_example":"There is a cat"}]`,
			expectedCards: 1,
			expectedFirst: domain.CardItem{ID: "n5-0001", Japanese: "猫", Hiragana: "ねこ", English: "cat", JapaneseExample: "猫がいる", EnglishExample: "There is a cat"},
		},
		{
			name:          "Optional fields omitted",
			input:         `[{"id":"a","japanese":"犬","hiragana":"いぬ","english":"dog"},{"id":"b","japanese":"鳥","hiragana":"とり","english":"bird"}]`,
			expectedCards: 2,
			expectedFirst: domain.CardItem{ID: "a", Japanese: "犬", Hiragana: "いぬ", English: "dog"},
		},
		{
			name:          "Unmodelled fields kept",
			input:         `[{"id":"a","english":"dog","tags":["n5"]}]`,
			expectedCards: 1,
			expectedFirst: domain.CardItem{ID: "a", English: "dog", Extra: map[string]json.RawMessage{"tags": json.RawMessage(`["n5"]`)}},
		},
		{
			name:          "Non-string id parses as blank",
			input:         `[{"id":5,"english":"dog"}]`,
			expectedCards: 1,
			expectedFirst: domain.CardItem{English: "dog"},
		},
		{name: "Non-string text field", input: `[{"id":"a","english":7}]`, expectErr: true},
		{name: "Empty deck", input: `[]`, expectedCards: 0},
		{name: "Object instead of array", input: `{"id":"a"}`, expectErr: true},
		{name: "Null", input: `null`, expectErr: true},
		{name: "Not JSON", input: `Q: what?`, expectErr: true},
		{name: "Trailing data", input: `[] []`, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if tc.expectErr {
				if err == nil {
					t.Fatalf("Expected an error, but got %d cards", len(cards))
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}
			if tc.expectedCards > 0 && !reflect.DeepEqual(cards[0], tc.expectedFirst) {
				t.Errorf("Expected first card %+v, but got %+v", tc.expectedFirst, cards[0])
			}
		})
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "b.json", `[{"id":"b1","japanese":"犬","hiragana":"いぬ","english":"dog"}]`)
	writeDeck(t, dir, "a.json", `[{"id":"a1","japanese":"猫","hiragana":"ねこ","english":"cat"},{"id":"a2","japanese":"鳥","hiragana":"とり","english":"bird"}]`)
	writeDeck(t, dir, "notes.txt", `ignored`)
	os.Mkdir(filepath.Join(dir, "sub.json"), 0o755)

	src := NewDirSource(dir)

	t.Run("keys are sorted deck files", func(t *testing.T) {
		keys, err := src.Keys()
		if err != nil {
			t.Fatalf("Keys() returned an unexpected error: %v", err)
		}
		if !slices.Equal(keys, []string{"a.json", "b.json"}) {
			t.Errorf("Expected [a.json b.json], but got %v", keys)
		}
	})

	t.Run("load", func(t *testing.T) {
		cards, err := src.Load("a.json")
		if err != nil {
			t.Fatalf("Load() returned an unexpected error: %v", err)
		}
		if !slices.Equal(cardIDs(cards), []string{"a1", "a2"}) {
			t.Errorf("Expected [a1 a2], but got %v", cardIDs(cards))
		}
	})

	t.Run("missing deck", func(t *testing.T) {
		if _, err := src.Load("zzz.json"); !errors.Is(err, ErrDeckNotFound) {
			t.Errorf("Expected ErrDeckNotFound, but got %v", err)
		}
	})

	t.Run("bad names", func(t *testing.T) {
		for _, name := range []string{"", "../a.json", "sub/a.json", "a.txt", `..\a.json`} {
			if _, err := src.Load(name); !errors.Is(err, ErrInvalidDeckName) {
				t.Errorf("Load(%q): expected ErrInvalidDeckName, but got %v", name, err)
			}
		}
	})
}

func TestDirSourceValidation(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "missing.json", `[{"id":"","english":"x"}]`)
	writeDeck(t, dir, "dup.json", `[{"id":"x","english":"a"},{"id":"x","english":"b"}]`)
	writeDeck(t, dir, "numeric.json", `[{"id":5,"english":"x"}]`)
	src := NewDirSource(dir)

	_, err := src.Load("missing.json")
	var verr *domain.DeckValidationError
	if !errors.As(err, &verr) || !errors.Is(err, domain.ErrMissingID) {
		t.Errorf("Expected missing-id validation error, but got %v", err)
	}

	_, err = src.Load("numeric.json")
	if !errors.As(err, &verr) || !errors.Is(err, domain.ErrMissingID) {
		t.Errorf("Expected a numeric id to be reported missing, but got %v", err)
	}

	_, err = src.Load("dup.json")
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Errorf("Expected duplicate-id validation error, but got %v", err)
	}

	if _, err := LoadAll(src); err == nil {
		t.Error("Expected LoadAll to fail when a deck is invalid")
	}
}

func TestDeleteCardAndReplace(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "d.json", `[{"id":"1","english":"one"},{"id":"2","english":"two"},{"id":"3","english":"three"}]`)
	src := NewDirSource(dir)

	cards, err := src.DeleteCard("d.json", 1)
	if err != nil {
		t.Fatalf("DeleteCard() returned an unexpected error: %v", err)
	}
	if !slices.Equal(cardIDs(cards), []string{"1", "3"}) {
		t.Errorf("Expected [1 3], but got %v", cardIDs(cards))
	}
	reloaded, _ := src.Load("d.json")
	if !slices.Equal(cardIDs(reloaded), []string{"1", "3"}) {
		t.Errorf("Expected file to hold [1 3], but got %v", cardIDs(reloaded))
	}

	for _, idx := range []int{-1, 2} {
		if _, err := src.DeleteCard("d.json", idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("DeleteCard(%d): expected ErrIndexOutOfRange, but got %v", idx, err)
		}
	}

	original := []domain.CardItem{{ID: "1", English: "one"}, {ID: "2", English: "two"}}
	if err := src.Replace("d.json", original); err != nil {
		t.Fatalf("Replace() returned an unexpected error: %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, "d.json"))
	if !strings.HasPrefix(string(raw), "[\n  {\n    \"id\": \"1\"") || !strings.HasSuffix(string(raw), "]\n") {
		t.Errorf("Expected indented JSON with trailing newline, but got %q", raw)
	}
}

func TestLoadAllDedupes(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "1.json", `[{"id":"a","japanese":"猫","hiragana":"ねこ","english":"cat"}]`)
	writeDeck(t, dir, "2.json", `[{"id":"b","japanese":"猫","hiragana":"ねこ","english":"cat"},{"id":"c","japanese":"犬","hiragana":"いぬ","english":"dog"}]`)

	cards, err := LoadAll(NewDirSource(dir))
	if err != nil {
		t.Fatalf("LoadAll() returned an unexpected error: %v", err)
	}
	if !slices.Equal(cardIDs(cards), []string{"a", "c"}) {
		t.Errorf("Expected [a c], but got %v", cardIDs(cards))
	}
}

func TestAssignIDs(t *testing.T) {
	in := []domain.CardItem{
		{ID: "", English: "one"},
		{ID: "keep", English: "two"},
		{ID: "keep", English: "three"},
		{ID: "  ", English: "four"},
		{ID: "keep", English: "five"},
		{ID: "n5-0001", English: "six"},
	}
	got := cardIDs(AssignIDs("n5", in))
	want := []string{"n5-0001", "keep", "keep-01", "n5-0004", "keep-02", "n5-0001-01"}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, but got %v", want, got)
	}
	if in[0].ID != "" {
		t.Error("Expected input cards to be untouched")
	}
}

func TestAssignIDsInDir(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "verbs.json", `[{"english":"eat"},{"id":"x","english":"drink"},{"id":"x","english":"sleep"}]`)

	updated, err := AssignIDsInDir(dir)
	if err != nil {
		t.Fatalf("AssignIDsInDir() returned an unexpected error: %v", err)
	}
	if updated["verbs.json"] != 3 {
		t.Errorf("Expected 3 cards updated, but got %v", updated)
	}
	cards, err := NewDirSource(dir).Load("verbs.json")
	if err != nil {
		t.Fatalf("Expected deck to validate after assigning ids, but got %v", err)
	}
	if !slices.Equal(cardIDs(cards), []string{"verbs-0001", "x", "x-01"}) {
		t.Errorf("Expected [verbs-0001 x x-01], but got %v", cardIDs(cards))
	}
}

func TestRewriteKeepsDeckContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n5.json")
	writeDeck(t, dir, "n5.json", `[{"id":"","japanese":"<b>食</b>","hiragana":"たべる","english":"eat & drink","tags":["n5"],"level":{"jlpt":5}}]`)
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatal(err)
	}

	if _, err := AssignIDsInDir(dir); err != nil {
		t.Fatalf("AssignIDsInDir() returned an unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("Expected mode 0640 to be kept, but got %v", info.Mode().Perm())
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(b)
	for _, want := range []string{
		`"id": "n5-0001"`,
		`"japanese": "<b>食</b>"`,
		`"english": "eat & drink"`,
		`"tags": [`,
		`"jlpt": 5`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected rewritten deck to contain %s, but got:\n%s", want, content)
		}
	}

	cards, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(cards) != 1 || len(cards[0].Extra) != 2 {
		t.Errorf("Expected the unmodelled fields to survive a second read, but got %+v", cards)
	}
}

func TestReplaceCreatesReadableFile(t *testing.T) {
	dir := t.TempDir()
	if err := NewDirSource(dir).Replace("new.json", []domain.CardItem{{ID: "a", English: "a"}}); err != nil {
		t.Fatalf("Replace() returned an unexpected error: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "new.json"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("Expected a new deck to be 0644, but got %v", info.Mode().Perm())
	}
}
