package web

import (
	"encoding/json"
	"net/http"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/session"
	"github.com/conorfennell/flashdeck/internal/stats"
)

// handleListDecks returns the deck keys.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := s.decks.Keys()
		if err != nil {
			writeError(w, err)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		writeJSON(w, http.StatusOK, keys)
	}
}

// handleGetDeck returns the cards of one deck as stored.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.decks.Read(r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

// handleDeleteCard removes one card, by index, from a deck file.
func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Index *int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
			badRequest(w, "index required")
			return
		}
		cards, err := s.decks.DeleteCard(r.PathValue("name"), *body.Index)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "deck": cards})
	}
}

// handleReplaceDeck overwrites a deck file with the posted cards.
func (s *Server) handleReplaceDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content *[]domain.CardItem `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == nil {
			badRequest(w, "content must be array")
			return
		}
		if err := s.decks.Replace(r.PathValue("name"), *body.Content); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// handleGetStats returns every card record, weakest first.
func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, stats.Rows(s.stats.GetAllRecords()))
	}
}

type cardView struct {
	ID        string `json:"id"`
	Success   int    `json:"success"`
	Failure   int    `json:"failure"`
	Difficult bool   `json:"difficult"`
}

func (s *Server) cardView(id string) cardView {
	counts := s.stats.GetCounts(id)
	return cardView{
		ID:        id,
		Success:   counts.Success,
		Failure:   counts.Failure,
		Difficult: s.stats.IsDifficult(id),
	}
}

// handleGetCard returns the counts and flag of one card.
func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.cardView(r.PathValue("id")))
	}
}

// handleToggleDifficult flips the difficult flag of one card.
func (s *Server) handleToggleDifficult() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		on := s.stats.ToggleDifficult(r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]bool{"difficult": on})
	}
}

type studyView struct {
	session.State
	Card *cardView `json:"card,omitempty"`
}

func (s *Server) writeStudy(w http.ResponseWriter) {
	view := studyView{State: s.session.State()}
	if view.Current != nil {
		cv := s.cardView(view.Current.ID)
		view.Card = &cv
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetStudy renders the session state.
func (s *Server) handleGetStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeStudy(w)
	}
}

// handleSelectDeck starts a deck run.
func (s *Server) handleSelectDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Key == "" {
			badRequest(w, "key required")
			return
		}
		if err := s.session.SelectDeck(body.Key); err != nil {
			writeError(w, err)
			return
		}
		s.writeStudy(w)
	}
}

// handleStartRandom starts a random run across all decks.
func (s *Server) handleStartRandom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := struct {
			Count               *int  `json:"count"`
			PrioritizeDifficult *bool `json:"prioritize_difficult"`
		}{}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				badRequest(w, "invalid body")
				return
			}
		}
		count, prioritize := s.opts.RandomCount, s.opts.PrioritizeDifficult
		if body.Count != nil {
			count = *body.Count
		}
		if body.PrioritizeDifficult != nil {
			prioritize = *body.PrioritizeDifficult
		}
		if err := s.session.StartRandom(count, prioritize); err != nil {
			writeError(w, err)
			return
		}
		s.writeStudy(w)
	}
}

// handleStudyAction runs a session action and renders the new state.
func (s *Server) handleStudyAction(action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(); err != nil {
			writeError(w, err)
			return
		}
		s.writeStudy(w)
	}
}
