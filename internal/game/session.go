// internal/game/session.go
//
// Session couples one Game with its click wheel and pointer bus.
//
// Every input (pointer event, confirm, direct rating) runs to completion
// under the session mutex, so events for one session are applied strictly
// in arrival order and never interleave.
//
// Data flow: pointer events → Wheel → Game.SetRating; center → Game.Confirm.
// After every input the wheel is re-synced from the game: its value follows
// Game.Rating and it is disabled whenever the round is not open.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/dial"
)

// Mode distinguishes free play from the daily challenge.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeDaily   Mode = "daily"
)

// SessionOptions configures NewSession.
type SessionOptions struct {
	ID          string
	Deck        Deck
	Geometry    dial.Geometry
	Sensitivity float64
	Mode        Mode
	Date        string // daily challenge date key, daily mode only
	OwnerID     string // user or anonymous id
	Now         time.Time
}

// Session is a game plus its input state.
type Session struct {
	mu        sync.Mutex
	game      *Game
	wheel     *dial.Wheel
	bus       *dial.Bus
	deck      Deck
	lastEvent Event

	ID        string
	Mode      Mode
	Date      string
	OwnerID   string
	CreatedAt time.Time
	touchedAt time.Time
	playStart time.Time
}

// PointerResult reports how a pointer event was handled.
type PointerResult struct {
	Handled        bool    `json:"handled"`
	OnCenter       bool    `json:"onCenter"`
	Dragging       bool    `json:"dragging"`
	PreventDefault bool    `json:"preventDefault"`
	Value          float64 `json:"value"`
	Progress       float64 `json:"progress"`
	Rotation       float64 `json:"rotation"`
}

// DialView is the wheel state for rendering.
type DialView struct {
	Value       float64 `json:"value"`
	Progress    float64 `json:"progress"`
	Dragging    bool    `json:"dragging"`
	Disabled    bool    `json:"disabled"`
	Sensitivity float64 `json:"sensitivity"`
	Rotation    float64 `json:"rotation"`
}

// View is a session snapshot.
type View struct {
	Snapshot
	Mode    Mode     `json:"mode"`
	Date    string   `json:"date,omitempty"`
	Loading bool     `json:"loading"`
	Dial    DialView `json:"dial"`
}

// Summary is a finished play-through, ready to persist.
type Summary struct {
	PlayID     string
	Mode       Mode
	Date       string
	OwnerID    string
	Results    []RoundResult
	TotalScore int
	Percentage int
	Grade      Grade
	StartedAt  time.Time
}

// NewSession builds a session in the start phase.
func NewSession(opts SessionOptions) *Session {
	if opts.Mode == "" {
		opts.Mode = ModeClassic
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	s := &Session{
		game:      New(opts.ID, opts.Deck),
		bus:       dial.NewBus(),
		deck:      opts.Deck,
		ID:        opts.ID,
		Mode:      opts.Mode,
		Date:      opts.Date,
		OwnerID:   opts.OwnerID,
		CreatedAt: opts.Now,
		touchedAt: opts.Now,
	}
	s.wheel = dial.New(dial.Options{
		Geometry:    opts.Geometry,
		Min:         MinRating,
		Max:         MaxRating,
		Value:       DefaultRating,
		Sensitivity: opts.Sensitivity,
		Source:      s.bus,
		OnChange:    func(v float64) { s.game.SetRating(v) },
		OnActivate:  func(ctx context.Context) { s.lastEvent = s.game.Confirm(ctx) },
	})
	s.sync()
	return s
}

// Pointer routes a pointer event to the wheel. Down starts tracking
// directly; everything else goes through the bus, which only the wheel's
// live drag subscription listens to.
func (s *Session) Pointer(e dial.Event) PointerResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = time.Now().UTC()

	res := PointerResult{}
	switch e.Type {
	case dial.EventDown:
		res.Handled = s.wheel.Down(e.Pointer)
		res.OnCenter = !res.Handled && s.wheel.Geometry().InCenter(e.Pointer.X, e.Pointer.Y)
	default:
		res.Handled = s.wheel.Dragging()
		s.bus.Dispatch(e)
	}
	s.sync()

	res.Dragging = s.wheel.Dragging()
	res.PreventDefault = s.wheel.PreventDefault()
	res.Value = s.wheel.Value()
	res.Progress = s.wheel.Progress()
	res.Rotation = s.wheel.AccumulatedRotation()
	return res
}

// Confirm presses the center button. Events for a session are applied in
// arrival order; callers on other goroutines block until it is their turn.
func (s *Session) Confirm(ctx context.Context) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = time.Now().UTC()

	s.lastEvent = EventNone
	s.wheel.Center(ctx)
	if s.lastEvent == EventStarted || s.lastEvent == EventRestarted {
		s.playStart = s.touchedAt
	}
	s.sync()
	return s.lastEvent
}

// SetRating sets the rating directly (keyboard input). False when the round is closed.
func (s *Session) SetRating(v float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = time.Now().UTC()

	ok := s.game.SetRating(v)
	s.sync()
	return ok
}

// View returns the current session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	loading := false
	if l, ok := s.deck.(interface{ Loading() bool }); ok {
		loading = s.game.Phase == PhaseStart && l.Loading()
	}
	return View{
		Snapshot: s.game.Snapshot(),
		Mode:     s.Mode,
		Date:     s.Date,
		Loading:  loading,
		Dial: DialView{
			Value:       s.wheel.Value(),
			Progress:    s.wheel.Progress(),
			Dragging:    s.wheel.Dragging(),
			Disabled:    s.wheel.Disabled(),
			Sensitivity: s.wheel.Sensitivity(),
			Rotation:    s.wheel.AccumulatedRotation(),
		},
	}
}

// PlayID is the id of the current play-through ("" before the first start).
func (s *Session) PlayID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.PlayID
}

// Summary returns the finished play-through, or false if the game is not finished.
func (s *Session) Summary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.Phase != PhaseFinished {
		return Summary{}, false
	}
	return Summary{
		PlayID:     s.game.PlayID,
		Mode:       s.Mode,
		Date:       s.Date,
		OwnerID:    s.OwnerID,
		Results:    append([]RoundResult{}, s.game.Results...),
		TotalScore: s.game.TotalScore(),
		Percentage: s.game.Percentage(),
		Grade:      s.game.Grade(),
		StartedAt:  s.playStart,
	}, true
}

// TouchedAt is the time of the last input.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// Close ends any drag and releases its subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wheel.Close()
}

// sync copies game state onto the wheel. Caller holds s.mu.
func (s *Session) sync() {
	s.wheel.SetDisabled(!s.game.AcceptsRating())
	s.wheel.SetValue(s.game.Rating)
}
