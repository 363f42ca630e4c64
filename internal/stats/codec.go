package stats

import (
	"encoding/json"
	"math"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// nonNegative coerces a decoded JSON value to a count. Anything that is not
// a finite number >= 0 becomes 0. Counts are whole attempts, so fractions
// are truncated, and values past MaxInt32 are capped so int stays safe on
// every platform.
func nonNegative(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func boolean(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// decodeTable parses the persisted table. Unparseable input yields an empty
// table, and each field of each record is validated on its own.
func decodeTable(raw string) map[string]domain.CardRecord {
	out := make(map[string]domain.CardRecord)
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return out
	}
	for id, v := range obj {
		fields, _ := v.(map[string]any)
		out[id] = domain.CardRecord{
			Success:   nonNegative(fields["success"]),
			Failure:   nonNegative(fields["failure"]),
			Difficult: boolean(fields["difficult"]),
		}
	}
	return out
}

func encodeTable(table map[string]domain.CardRecord) (string, error) {
	b, err := json.Marshal(table)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeLegacyCounts parses a per-card legacy stats entry. ok is false only
// when raw is not JSON at all.
func decodeLegacyCounts(raw string) (counts domain.CardCounts, ok bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.CardCounts{}, false
	}
	fields, _ := v.(map[string]any)
	return domain.CardCounts{
		Success: nonNegative(fields["success"]),
		Failure: nonNegative(fields["failure"]),
	}, true
}

// decodeLegacyDifficult parses a per-deck legacy difficulty list, keeping
// only string entries. Anything but a JSON array yields nil.
func decodeLegacyDifficult(raw string) []string {
	var arr []any
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return nil
	}
	var ids []string
	for _, item := range arr {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
