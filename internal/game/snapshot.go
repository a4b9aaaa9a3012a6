// internal/game/snapshot.go
//
// Presentation view of a game: everything the front end needs to draw the
// screen, center button and progress indicators. The actual critic rating
// of the current album is withheld until the round's result is shown.

package game

import (
	"fmt"
	"math"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
)

// AlbumView is an album as shown during a round.
type AlbumView struct {
	ID     albums.ID `json:"id,omitempty"`
	Title  string    `json:"album"`
	Artist string    `json:"artist"`
	Year   int       `json:"year_released"`
	Hint   string    `json:"small_text"`
	ArtURL string    `json:"album_art_url"`
	Rating *float64  `json:"rating,omitempty"` // only once the result is shown
}

// Stars is the five-star rendering of a 0–10 rating.
type Stars struct {
	Full  int  `json:"full"`
	Half  bool `json:"half"`
	Empty int  `json:"empty"`
}

// Snapshot is a read-only copy of the game for rendering.
type Snapshot struct {
	ID          string        `json:"gameId"`
	Phase       Phase         `json:"phase"`
	Title       string        `json:"title"`
	CenterLabel string        `json:"centerLabel"`
	Round       int           `json:"round"`
	TotalRounds int           `json:"totalRounds"`
	Rating      float64       `json:"rating"`
	Stars       Stars         `json:"stars"`
	ShowResult  bool          `json:"showResult"`
	RoundScore  *int          `json:"roundScore,omitempty"`
	Album       *AlbumView    `json:"album,omitempty"`
	Progress    []string      `json:"progress"`
	Results     []RoundResult `json:"results"`
	TotalScore  int           `json:"totalScore"`
	MaxScore    int           `json:"maxScore"`
	Percentage  int           `json:"percentage"`
	Grade       *Grade        `json:"grade,omitempty"`
	ShowIcons   bool          `json:"showIcons"`
}

// Snapshot captures the current state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		ID:          g.ID,
		Phase:       g.Phase,
		Title:       g.ScreenTitle(),
		CenterLabel: g.CenterLabel(),
		Round:       g.Round,
		TotalRounds: g.TotalRounds,
		Rating:      g.Rating,
		Stars:       StarsFor(g.Rating),
		ShowResult:  g.ShowResult,
		Progress:    ProgressDots(g.Round, g.TotalRounds),
		Results:     append([]RoundResult{}, g.Results...),
		TotalScore:  g.TotalScore(),
		MaxScore:    g.MaxPossibleScore(),
		Percentage:  g.Percentage(),
		ShowIcons:   g.Phase == PhaseStart || g.Phase == PhaseFinished,
	}
	if g.RoundScore != nil {
		score := *g.RoundScore
		s.RoundScore = &score
	}
	if a, ok := g.CurrentAlbum(); ok {
		v := &AlbumView{ID: a.ID, Title: a.Title, Artist: a.Artist, Year: a.Year, Hint: a.Hint, ArtURL: a.ArtURL}
		if g.ShowResult {
			r := a.Rating
			v.Rating = &r
		}
		s.Album = v
	}
	if g.Phase == PhaseFinished {
		grade := g.Grade()
		s.Grade = &grade
	}
	return s
}

// ScreenTitle is the heading above the screen.
func (g *Game) ScreenTitle() string {
	switch g.Phase {
	case PhasePlaying:
		return fmt.Sprintf("Album %d of %d", g.Round+1, g.TotalRounds)
	case PhaseFinished:
		return "Final Score"
	default:
		return "Pitchfork Game"
	}
}

// CenterLabel is the text on the center button.
func (g *Game) CenterLabel() string {
	switch {
	case g.Phase == PhaseStart:
		return "START"
	case g.Phase == PhaseFinished:
		return "AGAIN"
	case g.ShowResult:
		return "NEXT"
	default:
		return "RATE"
	}
}

// ProgressDots marks each round completed, active or inactive.
func ProgressDots(current, total int) []string {
	out := make([]string, total)
	for i := range out {
		switch {
		case i == current:
			out[i] = "active"
		case i < current:
			out[i] = "completed"
		default:
			out[i] = "inactive"
		}
	}
	return out
}

// StarsFor splits a 0–10 rating into five stars with an optional half.
func StarsFor(rating float64) Stars {
	full := int(math.Floor(rating / 2))
	half := math.Mod(rating, 2) >= 1
	empty := 5 - full
	if half {
		empty--
	}
	if empty < 0 {
		empty = 0
	}
	return Stars{Full: full, Half: half, Empty: empty}
}
