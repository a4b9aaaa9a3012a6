// internal/httpserver/routes_game.go
//
// Game session endpoints:
//   - POST /game/new            → new session in the start phase (albums prefetched in background)
//   - GET  /game/{id}           → current view
//   - POST /game/{id}/confirm   → center button (start / submit / next / play again)
//   - POST /game/{id}/pointer   → pointer event for the click wheel
//   - POST /game/{id}/rating    → direct rating (keyboard input), same guards as the wheel
//   - DELETE /game/{id}         → drop the session
//
// Sessions are only visible to their owner (account or anonymous cookie).
// A finished play-through is persisted best effort when the last round closes.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/dial"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/game"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Delete("/", s.handleDeleteGame)
		r.Post("/confirm", s.handleConfirm)
		r.Post("/pointer", s.handlePointer)
		r.Post("/rating", s.handleRating)
	})
}

// newGameReq is the optional body of POST /game/new.
type newGameReq struct {
	Geometry    *dial.Geometry `json:"geometry"`
	Sensitivity float64        `json:"sensitivity"`
}

// confirmRes is returned by POST /game/{id}/confirm.
type confirmRes struct {
	Event game.Event `json:"event"`
	State game.View  `json:"state"`
}

// pointerReq is one pointer event from the front end.
type pointerReq struct {
	Type dial.EventType `json:"type"`
	Kind dial.Kind      `json:"kind"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
}

type pointerRes struct {
	Pointer game.PointerResult `json:"pointer"`
	State   game.View          `json:"state"`
}

type ratingReq struct {
	Rating *float64 `json:"rating"`
}

// handleNewGame creates a classic session and starts fetching its albums.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	geo, ok := geometryFrom(req.Geometry)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_geometry")
		return
	}
	sens := s.cfg.DialSensitivity
	if req.Sensitivity > 0 {
		sens = req.Sensitivity
	}

	loader := albums.NewLoader(s.albums, game.TotalRounds)
	// The initial fetch outlives this request; the source enforces its own timeout.
	loader.Prefetch(context.WithoutCancel(r.Context()))

	sess := game.NewSession(game.SessionOptions{
		ID:          uuid.NewString(),
		Deck:        loader,
		Geometry:    geo,
		Sensitivity: sens,
		Mode:        game.ModeClassic,
		OwnerID:     s.ownerID(w, r),
	})
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Debug().Str("gameId", sess.ID).Float64("sensitivity", sens).Msg("session created")
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	_ = s.store.Delete(r.Context(), sess.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleConfirm applies the center-button action.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	ev := sess.Confirm(r.Context())
	if ev == game.EventFinished {
		if sum, ok := sess.Summary(); ok {
			s.recordFinished(r.Context(), r, sum)
		}
	}
	writeJSON(w, http.StatusOK, confirmRes{Event: ev, State: sess.View()})
}

// handlePointer feeds one pointer event to the session's wheel.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req pointerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	switch req.Type {
	case dial.EventDown, dial.EventMove, dial.EventUp, dial.EventCancel:
	default:
		writeError(w, http.StatusBadRequest, "invalid_event_type")
		return
	}
	switch req.Kind {
	case "":
		req.Kind = dial.KindMouse
	case dial.KindMouse, dial.KindTouch:
	default:
		writeError(w, http.StatusBadRequest, "invalid_pointer_kind")
		return
	}

	res := sess.Pointer(dial.Event{
		Type:    req.Type,
		Pointer: dial.Pointer{Kind: req.Kind, X: req.X, Y: req.Y},
	})
	writeJSON(w, http.StatusOK, pointerRes{Pointer: res, State: sess.View()})
}

// handleRating sets the rating directly; 409 when the round is not open.
func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req ratingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		writeError(w, http.StatusBadRequest, "rating_required")
		return
	}
	if !sess.SetRating(*req.Rating) {
		writeError(w, http.StatusConflict, "round_closed")
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// sessionFor loads the {id} session and checks the caller owns it.
// On failure it has already written the response.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
		} else {
			writeError(w, http.StatusInternalServerError, "store_error")
		}
		return nil, false
	}
	if !s.owns(r, sess.OwnerID) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// geometryFrom validates client-supplied wheel geometry, defaulting when absent.
func geometryFrom(g *dial.Geometry) (dial.Geometry, bool) {
	if g == nil {
		return DefaultGeometry, true
	}
	for _, v := range []float64{g.CenterX, g.CenterY, g.CenterRadius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dial.Geometry{}, false
		}
	}
	if g.CenterRadius < 0 {
		return dial.Geometry{}, false
	}
	return *g, true
}
