// internal/game/types.go
//
// Core type definitions for the rating game.
// Defines:
//   - Phase: top-level screen state (start / playing / finished).
//   - RoundResult: one submitted guess and its score.
//   - Grade: letter grade + message for the summary screen.
//   - Game: state for a single game session.

package game

import "github.com/robalobadob/pitchdork/apps/go-server/internal/albums"

const (
	TotalRounds      = 5
	MaxScorePerRound = 100
	DefaultRating    = 5.0
	MinRating        = 0.0
	MaxRating        = 10.0
)

// Phase is the top-level state. The per-round "result shown" state is the
// ShowResult flag inside PhasePlaying, not a phase of its own.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Event reports what a Confirm did.
type Event string

const (
	EventNone      Event = ""          // nothing to do (e.g. missing album)
	EventStarted   Event = "started"   // start → playing
	EventSubmitted Event = "submitted" // rating scored, result shown
	EventAdvanced  Event = "advanced"  // next round
	EventFinished  Event = "finished"  // last round done
	EventRestarted Event = "restarted" // finished → playing with a fresh deck
)

// RoundResult is appended once per round; the list is append-only within a game.
type RoundResult struct {
	Album      albums.Album `json:"album"`
	UserRating float64      `json:"userRating"`
	Score      int          `json:"score"`
}

// Grade is the summary band for a final percentage.
type Grade struct {
	Letter  string `json:"grade"`
	Message string `json:"message"`
}

// Game holds the state of one game.
type Game struct {
	ID          string         // Session identifier (stable across replays).
	PlayID      string         // Identifier of the current play-through; new on every start.
	Phase       Phase          // start | playing | finished
	Round       int            // 0-based round index
	TotalRounds int            // rounds per game
	Rating      float64        // current dial rating, [0,10], one decimal
	ShowResult  bool           // result sub-state inside playing
	RoundScore  *int           // score of the round just submitted; nil otherwise
	Results     []RoundResult  // one per submitted round
	Albums      []albums.Album // album sequence for this play-through
	deck        Deck           // supplies album sequences
}
