// internal/httpserver/history.go
//
// Game history and per-user stats.
//   - recordFinished persists a finished play-through (games + game_rounds),
//     bumps account stats and, for daily sessions, the daily result.
//     Failures are logged and never surface to the player.
//   - GET /stats/me, GET /games/mine, GET /games/mine/{id}.
//     The detail view looks the round albums up again for art and hint;
//     a failed lookup just leaves those fields empty.

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/daily"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/game"
)

// recordFinished stores sum for the session owner.
func (s *Server) recordFinished(ctx context.Context, r *http.Request, sum game.Summary) {
	ctx = context.WithoutCancel(ctx)
	me := currentUser(r)
	isUser := me != nil && me.ID == sum.OwnerID

	var userID, anonID sql.NullString
	if isUser {
		userID = sql.NullString{String: sum.OwnerID, Valid: true}
	} else {
		anonID = sql.NullString{String: sum.OwnerID, Valid: true}
	}
	var dailyDate sql.NullString
	if sum.Mode == game.ModeDaily {
		dailyDate = sql.NullString{String: sum.Date, Valid: true}
	}

	now := time.Now().UTC()
	started := sum.StartedAt
	if started.IsZero() {
		started = now
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO games
		    (id, user_id, anonymous_id, mode, daily_date, total_score, percentage, grade, started_at, finished_at)
		    VALUES (?,?,?,?,?,?,?,?,?,?)`,
			sum.PlayID, userID, anonID, string(sum.Mode), dailyDate, sum.TotalScore, sum.Percentage,
			sum.Grade.Letter, started.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
			return err
		}
		for i, res := range sum.Results {
			if _, err := tx.ExecContext(ctx, `INSERT INTO game_rounds
			    (game_id, round, album_id, album, artist, actual, user_rating, score)
			    VALUES (?,?,?,?,?,?,?,?)`,
				sum.PlayID, i, string(res.Album.ID), res.Album.Title, res.Album.Artist,
				res.Album.Rating, res.UserRating, res.Score); err != nil {
				return err
			}
		}
		if isUser {
			return bumpStats(ctx, tx, sum.OwnerID, sum.TotalScore)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("playId", sum.PlayID).Msg("persist finished game")
	}

	if sum.Mode == game.ModeDaily && s.daily != nil {
		inserted, err := s.daily.store.InsertResult(ctx, daily.Result{
			UserID:     sum.OwnerID,
			Date:       sum.Date,
			Score:      sum.TotalScore,
			Percentage: sum.Percentage,
			Grade:      sum.Grade.Letter,
		})
		if err != nil {
			log.Warn().Err(err).Str("date", sum.Date).Msg("insert daily result")
		} else if !inserted {
			log.Debug().Str("date", sum.Date).Msg("daily result already recorded")
		}
	}
}

// inTx runs fn in a transaction, committing on nil.
func (s *Server) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// bumpStats increments games played and folds score into best/total.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, score int) error {
	_, err := tx.ExecContext(ctx, `UPDATE users
	    SET games_played = games_played + 1,
	        total_score  = total_score + ?,
	        best_score   = MAX(best_score, ?)
	    WHERE id=?`, score, score, userID)
	return err
}

// statsRes is returned by GET /stats/me.
type statsRes struct {
	ID           string `json:"id"`
	GamesPlayed  int    `json:"gamesPlayed"`
	BestScore    int    `json:"bestScore"`
	TotalScore   int    `json:"totalScore"`
	AverageScore int    `json:"averageScore"`
	DailyPlayed  int    `json:"dailyPlayed"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	u, err := s.findUserByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	res := statsRes{ID: u.ID, GamesPlayed: u.GamesPlayed, BestScore: u.BestScore, TotalScore: u.TotalScore}
	if u.GamesPlayed > 0 {
		res.AverageScore = int(float64(u.TotalScore)/float64(u.GamesPlayed) + 0.5)
	}
	if err := s.db.QueryRowContext(r.Context(),
		`SELECT COUNT(1) FROM daily_results WHERE user_id=?`, me.ID).Scan(&res.DailyPlayed); err != nil {
		log.Warn().Err(err).Msg("count daily results")
	}
	writeJSON(w, http.StatusOK, res)
}

// gameRow is one line of GET /games/mine.
type gameRow struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	DailyDate  string `json:"dailyDate,omitempty"`
	TotalScore int    `json:"totalScore"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
}

type roundRow struct {
	Round      int     `json:"round"`
	AlbumID    string  `json:"albumId"`
	Album      string  `json:"album"`
	Artist     string  `json:"artist"`
	Actual     float64 `json:"actual"`
	UserRating float64 `json:"userRating"`
	Score      int     `json:"score"`
	ArtURL     string  `json:"albumArtUrl,omitempty"`
	Hint       string  `json:"smallText,omitempty"`
}

const gameColumns = `id, mode, COALESCE(daily_date,''), total_score, percentage, grade, started_at, finished_at`

func scanGame(sc interface{ Scan(...any) error }) (gameRow, error) {
	var g gameRow
	err := sc.Scan(&g.ID, &g.Mode, &g.DailyDate, &g.TotalScore, &g.Percentage, &g.Grade, &g.StartedAt, &g.FinishedAt)
	return g, err
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	rows, err := s.db.QueryContext(r.Context(), `SELECT `+gameColumns+`
	                         FROM games WHERE user_id=? ORDER BY finished_at DESC LIMIT 50`, me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	out := []gameRow{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		out = append(out, g)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMyGame returns one game with its rounds.
func (s *Server) handleMyGame(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	g, err := scanGame(s.db.QueryRowContext(r.Context(), `SELECT `+gameColumns+`
	                         FROM games WHERE id=? AND user_id=?`, chi.URLParam(r, "id"), me.ID))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	rows, err := s.db.QueryContext(r.Context(), `SELECT round, album_id, album, artist, actual, user_rating, score
	                         FROM game_rounds WHERE game_id=? ORDER BY round`, g.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()
	rounds := []roundRow{}
	for rows.Next() {
		var rr roundRow
		if err := rows.Scan(&rr.Round, &rr.AlbumID, &rr.Album, &rr.Artist, &rr.Actual, &rr.UserRating, &rr.Score); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		rounds = append(rounds, rr)
	}
	s.hydrateRounds(r.Context(), rounds)
	writeJSON(w, http.StatusOK, map[string]any{"game": g, "rounds": rounds})
}

// hydrateRounds fills art and hint from the album source.
func (s *Server) hydrateRounds(ctx context.Context, rounds []roundRow) {
	if s.albums == nil || len(rounds) == 0 {
		return
	}
	ids := make([]string, 0, len(rounds))
	for _, rr := range rounds {
		ids = append(ids, rr.AlbumID)
	}
	found, err := s.albums.AlbumsByID(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("hydrate game rounds")
		return
	}
	byID := make(map[string]albums.Album, len(found))
	for _, a := range found {
		byID[string(a.ID)] = a
	}
	for i := range rounds {
		if a, ok := byID[rounds[i].AlbumID]; ok {
			rounds[i].ArtURL = a.ArtURL
			rounds[i].Hint = a.Hint
		}
	}
}
