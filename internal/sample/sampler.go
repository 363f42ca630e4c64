package sample

import (
	"sort"

	"github.com/samber/lo"

	"github.com/conorfennell/flashdeck/internal/domain"
)

type scored struct {
	card     domain.CardItem
	priority float64
}

// byPriority returns cards sorted by descending priority. Ties keep their
// input order. priorityOf is called once per card.
func byPriority(cards []domain.CardItem, priorityOf PriorityFunc) []domain.CardItem {
	items := lo.Map(cards, func(c domain.CardItem, _ int) scored {
		return scored{card: c, priority: priorityOf(c)}
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].priority > items[j].priority
	})
	return lo.Map(items, func(s scored, _ int) domain.CardItem { return s.card })
}

// MixedByPriority draws up to n cards from pool. The first floor(n/2) are a
// uniform random sample (exploration); the rest are the highest-priority
// cards among those not already drawn (exploitation). Exploration cards come
// first in the result.
func MixedByPriority(pool []domain.CardItem, n int, priorityOf PriorityFunc, rng Source) []domain.CardItem {
	if n <= 0 || len(pool) == 0 {
		return []domain.CardItem{}
	}

	explore := SampleN(pool, n/2, rng)
	chosen := domain.NewIDSet(lo.Map(explore, func(c domain.CardItem, _ int) string { return c.ID })...)
	remaining := lo.Filter(pool, func(c domain.CardItem, _ int) bool { return !chosen.Has(c.ID) })

	need := min(n-len(explore), len(remaining))
	exploit := byPriority(remaining, priorityOf)[:need]

	out := make([]domain.CardItem, 0, len(explore)+len(exploit))
	out = append(out, explore...)
	return append(out, exploit...)
}

// FlagFirst draws up to n cards from pool, giving flagged cards strict
// precedence. Flagged cards are taken in descending priority order; if they
// fill n nothing else is drawn. Otherwise the remaining slots are filled by
// MixedByPriority over the unflagged cards.
func FlagFirst(pool []domain.CardItem, flagged domain.IDSet, n int, priorityOf PriorityFunc, rng Source) []domain.CardItem {
	if n <= 0 || len(pool) == 0 {
		return []domain.CardItem{}
	}

	isFlagged := func(c domain.CardItem, _ int) bool { return flagged.Has(c.ID) }
	flaggedCards := byPriority(lo.Filter(pool, isFlagged), priorityOf)
	if len(flaggedCards) >= n {
		return flaggedCards[:n]
	}

	rest := lo.Reject(pool, isFlagged)
	fill := MixedByPriority(rest, n-len(flaggedCards), priorityOf, rng)
	return append(flaggedCards, fill...)
}
