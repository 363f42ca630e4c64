package stats

import (
	"sort"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/sample"
)

// Row is one card's line in a stats listing.
type Row struct {
	ID        string  `json:"id"`
	Success   int     `json:"success"`
	Failure   int     `json:"failure"`
	Ratio     float64 `json:"ratio"`
	Difficult bool    `json:"difficult"`
}

// Rows flattens a snapshot into rows ordered by failure ratio, highest
// first, then by id.
func Rows(records map[string]domain.CardRecord) []Row {
	rows := make([]Row, 0, len(records))
	for id, rec := range records {
		rows = append(rows, Row{
			ID:        id,
			Success:   rec.Success,
			Failure:   rec.Failure,
			Ratio:     sample.FailureRatio(rec.Success, rec.Failure),
			Difficult: rec.Difficult,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ratio != rows[j].Ratio {
			return rows[i].Ratio > rows[j].Ratio
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}
