// Package stats is the durable per-card statistics table: success and
// failure counts plus the difficult flag, keyed by card id.
//
// The store fails soft. Storage and decoding errors are logged and the
// affected operation behaves as if no data were stored; no method returns
// an error. Every mutation is a full read-modify-write of the table.
package stats

import (
	"log/slog"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
)

// Store persists card records through a storage.KV.
type Store struct {
	kv        storage.KV
	migration MigrationReport
}

// New returns a Store backed by kv, migrating legacy data on first use.
func New(kv storage.KV) *Store {
	s := &Store{kv: kv}
	s.migration = s.migrateIfNeeded()
	return s
}

// Migration reports what the migration check in New did.
func (s *Store) Migration() MigrationReport {
	return s.migration
}

func (s *Store) read() map[string]domain.CardRecord {
	raw, ok, err := s.kv.Get(TableKey)
	if err != nil {
		slog.Warn("stats: cannot read table", "error", err)
		return make(map[string]domain.CardRecord)
	}
	if !ok {
		return make(map[string]domain.CardRecord)
	}
	return decodeTable(raw)
}

func (s *Store) write(table map[string]domain.CardRecord) {
	raw, err := encodeTable(table)
	if err != nil {
		slog.Warn("stats: cannot encode table", "error", err)
		return
	}
	if err := s.kv.Set(TableKey, raw); err != nil {
		slog.Warn("stats: cannot write table", "error", err)
	}
}

// update applies fn to the record for id, creating it if absent, and
// persists the table.
func (s *Store) update(id string, fn func(rec *domain.CardRecord)) domain.CardRecord {
	table := s.read()
	rec := table[id]
	if fn != nil {
		fn(&rec)
	}
	table[id] = rec
	s.write(table)
	return rec
}

// IncrementSuccess adds one success for id.
func (s *Store) IncrementSuccess(id string) {
	s.update(id, func(rec *domain.CardRecord) { rec.Success++ })
}

// IncrementFailure adds one failure for id.
func (s *Store) IncrementFailure(id string) {
	s.update(id, func(rec *domain.CardRecord) { rec.Failure++ })
}

// DecrementSuccess lowers the success count by one, never below zero.
func (s *Store) DecrementSuccess(id string) {
	s.update(id, func(rec *domain.CardRecord) { rec.Success = max(0, rec.Success-1) })
}

// DecrementFailure lowers the failure count by one, never below zero.
func (s *Store) DecrementFailure(id string) {
	s.update(id, func(rec *domain.CardRecord) { rec.Failure = max(0, rec.Failure-1) })
}

// GetCounts returns the counts for id. Reading an unseen id stores a zero
// record for it.
func (s *Store) GetCounts(id string) domain.CardCounts {
	return s.update(id, nil).Counts()
}

// GetAllRecords returns a snapshot of the whole table as currently stored.
// Callers scoring many cards should take one snapshot and reuse it.
func (s *Store) GetAllRecords() map[string]domain.CardRecord {
	return s.read()
}

// IsDifficult reports whether id is flagged difficult, creating a zero
// record for an unseen id.
func (s *Store) IsDifficult(id string) bool {
	return s.update(id, nil).Difficult
}

// ToggleDifficult flips the difficult flag for id and returns the new state.
func (s *Store) ToggleDifficult(id string) bool {
	return s.update(id, func(rec *domain.CardRecord) { rec.Difficult = !rec.Difficult }).Difficult
}

// GetDifficult returns every id currently flagged difficult.
func (s *Store) GetDifficult() domain.IDSet {
	out := domain.IDSet{}
	for id, rec := range s.read() {
		if rec.Difficult {
			out.Add(id)
		}
	}
	return out
}
