// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
//   - POST /daily/new         → start (or resume) today's daily session
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Play itself goes through the regular /game/{id}/* routes; a daily
// session is an ordinary session whose albums are fixed by the date.
// Each player records one result per day (first finish wins, enforced by
// UNIQUE(user_id, date)); replays after that are practice.

package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/daily"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	now      func() time.Time
	mu       sync.Mutex        // guards sessions
	sessions map[string]string // userID|date → session ID
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		now:      time.Now,
		sessions: make(map[string]string),
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// deck returns the fixed album sequence for date.
func (d *dailyServer) deck(date time.Time) albums.FixedDeck {
	cat := d.srv.catalog
	idx := daily.AlbumIndices(date, d.salt, cat.Len(), game.TotalRounds)
	out := make(albums.FixedDeck, 0, len(idx))
	for _, i := range idx {
		out = append(out, cat.At(i))
	}
	return out
}

// newRes is returned by /daily/new.
type newRes struct {
	GameID string     `json:"gameId"`
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	State  *game.View `json:"state,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
//   - If the player already has a result for today → Played=true, no session.
//   - Otherwise return the live session for today, creating it if needed.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.srv.ownerID(w, r)
	now := d.now().UTC()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		log.Error().Err(err).Msg("daily already played")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: date, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.sessions[key]; ok {
		if sess, err := d.srv.store.Get(r.Context(), id); err == nil {
			v := sess.View()
			writeJSON(w, http.StatusOK, newRes{GameID: sess.ID, Date: date, State: &v})
			return
		}
		delete(d.sessions, key) // swept
	}

	sess := game.NewSession(game.SessionOptions{
		ID:          uuid.NewString(),
		Deck:        d.deck(now),
		Geometry:    DefaultGeometry,
		Sensitivity: d.srv.cfg.DialSensitivity,
		Mode:        game.ModeDaily,
		Date:        date,
		OwnerID:     uid,
	})
	if err := d.srv.store.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.sessions[key] = sess.ID
	v := sess.View()
	writeJSON(w, http.StatusOK, newRes{GameID: sess.ID, Date: date, State: &v})
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	} else if _, err := daily.ParseDateKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
