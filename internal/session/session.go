// Package session runs a study session over a deck or a sampled pool.
//
// The current card is always the head of the remaining list. Each card id
// is recorded at most once per run: the first Known or Unknown judgement
// counts, later ones in the same run only move the card. Starting or
// restarting a run resets that gate.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/conorfennell/flashdeck/internal/cardid"
	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/sample"
)

// ErrNoCurrentCard is returned when an action needs a current card and the
// run is empty.
var ErrNoCurrentCard = errors.New("no current card")

// Stats is the part of the stats store a session uses.
type Stats interface {
	IncrementSuccess(id string)
	IncrementFailure(id string)
	GetAllRecords() map[string]domain.CardRecord
	GetDifficult() domain.IDSet
	ToggleDifficult(id string) bool
}

// Kind tells deck runs from random runs.
type Kind string

const (
	KindNone   Kind = ""
	KindDeck   Kind = "deck"
	KindRandom Kind = "random"
)

// Controller holds the state of one study session. Its methods are safe to
// call from concurrent goroutines, but they act on a single session.
type Controller struct {
	mu      sync.Mutex
	stats   Stats
	decks   deck.Source
	rng     sample.Source
	kind    Kind
	deckKey string
	cards   []domain.CardItem
	initial []domain.CardItem
	counted domain.IDSet
}

// New returns an idle Controller. A nil rng uses sample.Default.
func New(stats Stats, decks deck.Source, rng sample.Source) *Controller {
	if rng == nil {
		rng = sample.Default
	}
	return &Controller{
		stats:   stats,
		decks:   decks,
		rng:     rng,
		counted: domain.IDSet{},
	}
}

// State is a snapshot of a session.
type State struct {
	Kind      Kind             `json:"kind"`
	DeckKey   string           `json:"deck_key,omitempty"`
	Current   *domain.CardItem `json:"current,omitempty"`
	Remaining int              `json:"remaining"`
	Complete  bool             `json:"complete"`
}

func (c *Controller) state() State {
	s := State{
		Kind:      c.kind,
		DeckKey:   c.deckKey,
		Remaining: len(c.cards),
		Complete:  c.kind != KindNone && len(c.cards) == 0,
	}
	if len(c.cards) > 0 {
		cur := c.cards[0]
		s.Current = &cur
	}
	return s
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// Current returns the card at the head of the run.
func (c *Controller) Current() (domain.CardItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cards) == 0 {
		return domain.CardItem{}, false
	}
	return c.cards[0], true
}

// Remaining returns a copy of the cards left in the run, current first.
func (c *Controller) Remaining() []domain.CardItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.cards)
}

// SelectDeck starts a deck run over a shuffled copy of the deck named key.
// A deck that fails id validation leaves the session unchanged.
func (c *Controller) SelectDeck(key string) error {
	cards, err := c.decks.Load(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = KindDeck
	c.deckKey = key
	c.initial = nil
	c.counted = domain.IDSet{}
	c.cards = sample.Shuffle(cards, c.rng)
	slog.Debug("session: deck run started", "deck", key, "cards", len(c.cards))
	return nil
}

// StartRandom starts a random run of up to count cards drawn from every
// deck. With prioritizeDifficult the difficult cards are drawn first.
func (c *Controller) StartRandom(count int, prioritizeDifficult bool) error {
	pool, err := deck.LoadAll(c.decks)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// One snapshot serves every priority lookup of this draw.
	priority := sample.RatioFromRecords(c.stats.GetAllRecords())
	var drawn []domain.CardItem
	if prioritizeDifficult {
		drawn = sample.FlagFirst(pool, c.stats.GetDifficult(), count, priority, c.rng)
	} else {
		drawn = sample.MixedByPriority(pool, count, priority, c.rng)
	}
	if err := cardid.ValidateIDs(drawn); err != nil {
		return fmt.Errorf("random run: %w", err)
	}

	c.kind = KindRandom
	c.deckKey = ""
	c.counted = domain.IDSet{}
	c.initial = sample.Shuffle(drawn, c.rng)
	c.cards = slices.Clone(c.initial)
	slog.Debug("session: random run started",
		"requested", count,
		"drawn", len(drawn),
		"pool", len(pool),
		"prioritize_difficult", prioritizeDifficult,
	)
	return nil
}

// Restart begins the current run again. A random run replays its original
// sample in its original order; a deck run reloads and reshuffles the deck.
func (c *Controller) Restart() error {
	c.mu.Lock()
	switch c.kind {
	case KindRandom:
		c.counted = domain.IDSet{}
		c.cards = slices.Clone(c.initial)
		c.mu.Unlock()
		return nil
	case KindDeck:
		key := c.deckKey
		c.mu.Unlock()
		return c.SelectDeck(key)
	}
	c.mu.Unlock()
	return nil
}

// Reshuffle shuffles the cards left in the run.
func (c *Controller) Reshuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards = sample.Shuffle(c.cards, c.rng)
}

// record increments a counter for id unless it already counted this run.
func (c *Controller) record(id string, increment func(string)) {
	if c.counted.Has(id) {
		return
	}
	increment(id)
	c.counted.Add(id)
}

// MarkKnown records a success for the current card and removes it.
func (c *Controller) MarkKnown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cards) == 0 {
		return ErrNoCurrentCard
	}
	c.record(c.cards[0].ID, c.stats.IncrementSuccess)
	c.cards = slices.Clone(c.cards[1:])
	return nil
}

// MarkUnknown records a failure for the current card and puts it back at a
// random position among the remaining cards.
func (c *Controller) MarkUnknown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cards) == 0 {
		return ErrNoCurrentCard
	}
	current := c.cards[0]
	c.record(current.ID, c.stats.IncrementFailure)
	rest := append(slices.Clone(c.cards[1:]), current)
	c.cards = sample.Shuffle(rest, c.rng)
	return nil
}

// ToggleDifficult flips the difficult flag of the current card.
func (c *Controller) ToggleDifficult() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cards) == 0 {
		return false, ErrNoCurrentCard
	}
	return c.stats.ToggleDifficult(c.cards[0].ID), nil
}
