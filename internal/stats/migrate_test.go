package stats

import (
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
)

func TestMigrate(t *testing.T) {
	current := map[string]domain.CardRecord{
		"a": {Success: 5, Failure: 1},
		"b": {Success: 0, Failure: 0, Difficult: true},
	}
	legacyStats := map[string]domain.CardCounts{
		"a": {Success: 2, Failure: 3},
		"c": {Success: 1, Failure: 0},
	}
	legacyDifficult := map[string][]string{
		"deckA": {"a"},
		"deckB": {"c", "d"},
	}

	got := Migrate(current, legacyStats, legacyDifficult)

	expected := map[string]domain.CardRecord{
		"a": {Success: 5, Failure: 3, Difficult: true},
		"b": {Difficult: true},
		"c": {Success: 1, Difficult: true},
		"d": {Difficult: true},
	}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d records, but got %+v", len(expected), got)
	}
	for id, want := range expected {
		if got[id] != want {
			t.Errorf("Record %s: expected %+v, but got %+v", id, want, got[id])
		}
	}

	if current["a"] != (domain.CardRecord{Success: 5, Failure: 1}) {
		t.Errorf("Expected current table to be untouched, but got %+v", current["a"])
	}
}

func TestMigrateEmpty(t *testing.T) {
	if got := Migrate(nil, nil, nil); len(got) != 0 {
		t.Errorf("Expected empty table, but got %+v", got)
	}
}

func seedLegacy(kv storage.KV) {
	kv.Set(LegacyStatsPrefix+"legacy1", `{"success":2,"failure":3}`)
	kv.Set(LegacyStatsPrefix+"legacy2", `{"success":0,"failure":1}`)
	kv.Set(LegacyStatsPrefix+"corrupt", `{not json`)
	kv.Set(LegacyDifficultPrefix+"deckA", `["legacy1"]`)
	kv.Set(LegacyDifficultPrefix+"deckB", `["legacy2","legacyX",42]`)
	kv.Set(LegacyDifficultPrefix+"deckC", `not-json`)
}

func TestStoreMigratesLegacyData(t *testing.T) {
	kv := storage.NewMemoryKV()
	seedLegacy(kv)

	s := New(kv)

	if got := s.GetCounts("legacy1"); got != (domain.CardCounts{Success: 2, Failure: 3}) {
		t.Errorf("Expected legacy1 {2 3}, but got %+v", got)
	}
	if got := s.GetCounts("legacy2"); got != (domain.CardCounts{Success: 0, Failure: 1}) {
		t.Errorf("Expected legacy2 {0 1}, but got %+v", got)
	}
	if _, ok := s.GetAllRecords()["corrupt"]; ok {
		t.Error("Expected the corrupt legacy entry to be ignored")
	}

	diffs := s.GetDifficult()
	for _, id := range []string{"legacy1", "legacy2", "legacyX"} {
		if !diffs.Has(id) {
			t.Errorf("Expected %s in the difficult union", id)
		}
	}
	if len(diffs) != 3 {
		t.Errorf("Expected 3 difficult ids, but got %v", diffs)
	}

	report := s.Migration()
	if !report.Applied || report.LegacyStats != 2 || report.LegacyDecks != 3 {
		t.Errorf("Unexpected migration report: %+v", report)
	}
	if marker, _, _ := kv.Get(MigratedKey); marker != "true" {
		t.Errorf("Expected migration marker 'true', but got '%s'", marker)
	}
}

func TestStoreMigrationKeepsHigherCurrentValues(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set(TableKey, `{"legacy1":{"success":9,"failure":0,"difficult":false}}`)
	seedLegacy(kv)

	s := New(kv)
	if got := s.GetCounts("legacy1"); got != (domain.CardCounts{Success: 9, Failure: 3}) {
		t.Errorf("Expected {9 3}, but got %+v", got)
	}
}

func TestStoreMigrationRunsOnce(t *testing.T) {
	kv := storage.NewMemoryKV()
	seedLegacy(kv)
	first := New(kv)
	first.DecrementFailure("legacy1")

	// New legacy data after the marker is set must not be folded in.
	kv.Set(LegacyStatsPrefix+"late", `{"success":7,"failure":7}`)
	kv.Set(LegacyDifficultPrefix+"deckD", `["late"]`)

	second := New(kv)
	if second.Migration().Applied {
		t.Error("Expected second construction to skip migration")
	}
	if got := second.GetCounts("legacy1"); got != (domain.CardCounts{Success: 2, Failure: 2}) {
		t.Errorf("Expected decremented counts to survive, but got %+v", got)
	}
	if second.GetDifficult().Has("late") {
		t.Error("Expected late legacy difficulty to be ignored")
	}
	if got := second.GetCounts("late"); got != (domain.CardCounts{}) {
		t.Errorf("Expected late legacy stats to be ignored, but got %+v", got)
	}
}

func TestStoreMigrationOverSQLite(t *testing.T) {
	kv, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite returned an unexpected error: %v", err)
	}
	defer kv.Close()
	seedLegacy(kv)

	s := New(kv)
	if got := s.GetCounts("legacy1"); got != (domain.CardCounts{Success: 2, Failure: 3}) {
		t.Errorf("Expected legacy1 {2 3}, but got %+v", got)
	}
	if !s.GetDifficult().Has("legacyX") {
		t.Error("Expected legacyX to be difficult")
	}
}
