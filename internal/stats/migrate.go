package stats

import (
	"log/slog"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Storage keys.
const (
	TableKey              = "flashcards:carddata:v1"
	MigratedKey           = "flashcards:carddata:migrated:v1"
	LegacyStatsPrefix     = "flashcards:stats:v1:"
	LegacyDifficultPrefix = "flashcards:difficult:v1:"
)

// Migrate folds the two legacy layouts into current and returns the merged
// table. current is not modified.
//
// Legacy counts are merged per field with max, so values already in the
// table never decrease. Legacy difficulty lists from every deck are unioned
// and each listed id is marked difficult.
func Migrate(current map[string]domain.CardRecord, legacyStats map[string]domain.CardCounts, legacyDifficult map[string][]string) map[string]domain.CardRecord {
	table := make(map[string]domain.CardRecord, len(current)+len(legacyStats))
	for id, rec := range current {
		table[id] = rec
	}

	for id, counts := range legacyStats {
		rec := table[id]
		rec.Success = max(rec.Success, counts.Success)
		rec.Failure = max(rec.Failure, counts.Failure)
		table[id] = rec
	}

	for _, ids := range legacyDifficult {
		for _, id := range ids {
			rec := table[id]
			rec.Difficult = true
			table[id] = rec
		}
	}
	return table
}

// MigrationReport describes what the last migration check did.
type MigrationReport struct {
	Applied     bool
	LegacyStats int
	LegacyDecks int
	Records     int
}

// migrateIfNeeded runs Migrate against storage once. The marker key keeps it
// from ever running again.
func (s *Store) migrateIfNeeded() MigrationReport {
	marker, _, err := s.kv.Get(MigratedKey)
	if err != nil {
		slog.Warn("stats: cannot read migration marker", "error", err)
		return MigrationReport{}
	}
	if marker == "true" {
		return MigrationReport{}
	}

	legacyStats := s.readLegacyStats()
	legacyDifficult := s.readLegacyDifficult()
	table := Migrate(s.read(), legacyStats, legacyDifficult)
	s.write(table)

	if err := s.kv.Set(MigratedKey, "true"); err != nil {
		slog.Warn("stats: cannot write migration marker", "error", err)
	}

	report := MigrationReport{
		Applied:     true,
		LegacyStats: len(legacyStats),
		LegacyDecks: len(legacyDifficult),
		Records:     len(table),
	}
	slog.Info("stats: migrated legacy data",
		"legacy_stats", report.LegacyStats,
		"legacy_decks", report.LegacyDecks,
		"records", report.Records,
	)
	return report
}

func (s *Store) readLegacyStats() map[string]domain.CardCounts {
	out := make(map[string]domain.CardCounts)
	keys, err := s.kv.Keys(LegacyStatsPrefix)
	if err != nil {
		slog.Warn("stats: cannot list legacy stats", "error", err)
		return out
	}
	for _, key := range keys {
		raw, ok, err := s.kv.Get(key)
		if err != nil || !ok {
			continue
		}
		counts, ok := decodeLegacyCounts(raw)
		if !ok {
			slog.Debug("stats: skipping corrupt legacy entry", "key", key)
			continue
		}
		out[strings.TrimPrefix(key, LegacyStatsPrefix)] = counts
	}
	return out
}

func (s *Store) readLegacyDifficult() map[string][]string {
	out := make(map[string][]string)
	keys, err := s.kv.Keys(LegacyDifficultPrefix)
	if err != nil {
		slog.Warn("stats: cannot list legacy difficulty sets", "error", err)
		return out
	}
	for _, key := range keys {
		raw, ok, err := s.kv.Get(key)
		if err != nil || !ok {
			continue
		}
		out[strings.TrimPrefix(key, LegacyDifficultPrefix)] = decodeLegacyDifficult(raw)
	}
	return out
}
