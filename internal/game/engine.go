// internal/game/engine.go
//
// Core state machine for a single rating game.
// Responsibilities:
//   - Create games in the start phase.
//   - Apply the single player action (Confirm) that drives every transition.
//   - Keep the dial rating bounded and quantized while a round is open.
//   - Score rounds and derive totals and grades from the result list.
//
// Transitions (Confirm):
//   start                         → playing, round 0, rating 5.0, results cleared, initial deck
//   playing, result hidden        → score current rating, append result, show result
//   playing, result shown         → next round (rating reset) or finished after the last round
//   finished                      → playing, round 0, fresh deck
//
// A start or restart whose deck comes back short of TotalRounds albums is
// refused (EventNone) and the phase is kept, so the next Confirm retries.
//
// Notes:
//   - Nothing here returns an error; guards turn invalid actions into no-ops.
//   - Aggregate score is always recomputed from Results, never stored.
package game

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/dial"
)

// Deck supplies album sequences: Initial for the first start, Fresh for replays.
type Deck interface {
	Initial(ctx context.Context) []albums.Album
	Fresh(ctx context.Context) []albums.Album
}

// New constructs a game in the start phase.
func New(id string, deck Deck) *Game {
	return &Game{
		ID:          id,
		Phase:       PhaseStart,
		TotalRounds: TotalRounds,
		Rating:      DefaultRating,
		Results:     []RoundResult{},
		deck:        deck,
	}
}

// Confirm applies the center-button action and reports what happened.
func (g *Game) Confirm(ctx context.Context) Event {
	switch g.Phase {
	case PhaseStart:
		list := g.deck.Initial(ctx)
		if len(list) < g.TotalRounds {
			return EventNone
		}
		g.reset(list)
		return EventStarted

	case PhaseFinished:
		list := g.deck.Fresh(ctx)
		if len(list) < g.TotalRounds {
			return EventNone
		}
		g.reset(list)
		return EventRestarted

	case PhasePlaying:
		if !g.ShowResult {
			return g.submit()
		}
		if g.Round < g.TotalRounds-1 {
			g.Round++
			g.Rating = DefaultRating
			g.ShowResult = false
			g.RoundScore = nil
			return EventAdvanced
		}
		g.Phase = PhaseFinished
		return EventFinished
	}
	return EventNone
}

// SetRating updates the dial rating while a round is open.
// Returns false when the round is not accepting input.
func (g *Game) SetRating(v float64) bool {
	if !g.AcceptsRating() {
		return false
	}
	g.Rating = dial.Quantize(v, MinRating, MaxRating)
	return true
}

// AcceptsRating reports whether the dial should be live.
func (g *Game) AcceptsRating() bool {
	return g.Phase == PhasePlaying && !g.ShowResult
}

// CurrentAlbum returns the album for the current round, if any.
func (g *Game) CurrentAlbum() (albums.Album, bool) {
	if g.Phase != PhasePlaying || g.Round < 0 || g.Round >= len(g.Albums) {
		return albums.Album{}, false
	}
	return g.Albums[g.Round], true
}

// TotalScore sums the recorded round scores.
func (g *Game) TotalScore() int {
	total := 0
	for _, r := range g.Results {
		total += r.Score
	}
	return total
}

// MaxPossibleScore is the best achievable total.
func (g *Game) MaxPossibleScore() int {
	return g.TotalRounds * MaxScorePerRound
}

// Percentage is the total as a rounded share of the maximum.
func (g *Game) Percentage() int {
	return Percentage(g.TotalScore(), g.TotalRounds)
}

// Grade is the summary band for the current total.
func (g *Game) Grade() Grade {
	return GradeFor(g.Percentage())
}

// submit scores the current round. Without a current album it is a no-op.
func (g *Game) submit() Event {
	album, ok := g.CurrentAlbum()
	if !ok {
		return EventNone
	}
	score := CalculateScore(g.Rating, album.Rating)
	g.Results = append(g.Results, RoundResult{
		Album:      album,
		UserRating: g.Rating,
		Score:      score,
	})
	g.RoundScore = &score
	g.ShowResult = true
	return EventSubmitted
}

func (g *Game) reset(list []albums.Album) {
	g.PlayID = uuid.NewString()
	g.Albums = list
	g.Phase = PhasePlaying
	g.Round = 0
	g.Rating = DefaultRating
	g.ShowResult = false
	g.RoundScore = nil
	g.Results = []RoundResult{}
}

// CalculateScore maps the distance between two ratings onto 0..100:
// 0 apart scores 100, each full point apart costs 10.
func CalculateScore(userRating, actualRating float64) int {
	diff := math.Abs(userRating - actualRating)
	score := math.Max(0, MaxScorePerRound-diff*10)
	return int(math.Round(score))
}

// Percentage converts a total over rounds into a rounded percentage.
func Percentage(total, rounds int) int {
	if rounds <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(rounds*MaxScorePerRound) * 100))
}

// GradeFor returns the letter band for pct.
func GradeFor(pct int) Grade {
	switch {
	case pct >= 90:
		return Grade{Letter: "A+", Message: "You're a true music critic!"}
	case pct >= 80:
		return Grade{Letter: "A", Message: "Excellent ear for quality!"}
	case pct >= 70:
		return Grade{Letter: "B", Message: "Pretty good taste!"}
	case pct >= 60:
		return Grade{Letter: "C", Message: "Not bad at all!"}
	default:
		return Grade{Letter: "D", Message: "Keep listening!"}
	}
}
