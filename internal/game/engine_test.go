package game

import (
	"context"
	"fmt"
	"testing"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/dial"
)

// countingDeck records Initial/Fresh calls and hands out numbered albums.
type countingDeck struct {
	initial, fresh int
	list           []albums.Album
}

func (d *countingDeck) Initial(context.Context) []albums.Album {
	d.initial++
	return d.list
}

func (d *countingDeck) Fresh(context.Context) []albums.Album {
	d.fresh++
	return d.list
}

func testAlbums(t *testing.T, ratings ...float64) []albums.Album {
	t.Helper()
	out := make([]albums.Album, len(ratings))
	for i, r := range ratings {
		out[i] = albums.Album{
			ID:     albums.ID(fmt.Sprintf("t-%d", i)),
			Title:  fmt.Sprintf("Album %d", i),
			Artist: "Artist",
			Rating: r,
			Year:   2000 + i,
		}
	}
	return out
}

func TestCalculateScore(t *testing.T) {
	cases := []struct {
		user, actual float64
		want         int
	}{
		{7.3, 7.3, 100},
		{0, 10, 0},
		{10, 0, 0},
		{5, 7, 80},
		{5.0, 8.5, 65},
		{9.9, 0.1, 2},
		{0, 0, 100},
		{10, 10, 100},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%.1f_vs_%.1f", tc.user, tc.actual), func(t *testing.T) {
			if got := CalculateScore(tc.user, tc.actual); got != tc.want {
				t.Fatalf("CalculateScore(%v,%v)=%d want %d", tc.user, tc.actual, got, tc.want)
			}
		})
	}
}

func TestCalculateScoreBoundsAndSymmetry(t *testing.T) {
	for u := 0; u <= 100; u += 7 {
		for a := 0; a <= 100; a += 9 {
			uu, aa := float64(u)/10, float64(a)/10
			s := CalculateScore(uu, aa)
			if s < 0 || s > 100 {
				t.Fatalf("score %d out of range for %v,%v", s, uu, aa)
			}
			if s != CalculateScore(aa, uu) {
				t.Fatalf("score not symmetric for %v,%v", uu, aa)
			}
		}
	}
}

func TestGradeFor(t *testing.T) {
	cases := []struct {
		pct    int
		letter string
	}{
		{100, "A+"}, {90, "A+"}, {89, "A"}, {80, "A"}, {79, "B"},
		{70, "B"}, {69, "C"}, {60, "C"}, {59, "D"}, {0, "D"},
	}
	for _, tc := range cases {
		if got := GradeFor(tc.pct).Letter; got != tc.letter {
			t.Errorf("GradeFor(%d)=%s want %s", tc.pct, got, tc.letter)
		}
	}
	if GradeFor(95).Message != "You're a true music critic!" {
		t.Fatalf("unexpected A+ message %q", GradeFor(95).Message)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(450, 5); got != 90 {
		t.Fatalf("Percentage(450,5)=%d", got)
	}
	if got := Percentage(333, 5); got != 67 {
		t.Fatalf("Percentage(333,5)=%d", got)
	}
	if got := Percentage(10, 0); got != 0 {
		t.Fatalf("Percentage with zero rounds=%d", got)
	}
}

func TestFullGame(t *testing.T) {
	ctx := context.Background()
	deck := &countingDeck{list: testAlbums(t, 8, 6.5, 3, 9.2, 5)}
	g := New("g1", deck)

	if g.Phase != PhaseStart || g.AcceptsRating() {
		t.Fatalf("new game should be in start and closed, got %s", g.Phase)
	}
	if g.SetRating(7) {
		t.Fatal("SetRating accepted in start phase")
	}

	if ev := g.Confirm(ctx); ev != EventStarted {
		t.Fatalf("first confirm=%q", ev)
	}
	if g.Phase != PhasePlaying || g.Round != 0 || g.Rating != DefaultRating {
		t.Fatalf("unexpected state after start: %+v", g)
	}
	if deck.initial != 1 || deck.fresh != 0 {
		t.Fatalf("deck calls initial=%d fresh=%d", deck.initial, deck.fresh)
	}

	for round := 0; round < TotalRounds; round++ {
		if g.Round != round {
			t.Fatalf("round=%d want %d", g.Round, round)
		}
		if !g.SetRating(8) {
			t.Fatalf("round %d: SetRating rejected", round)
		}
		if ev := g.Confirm(ctx); ev != EventSubmitted {
			t.Fatalf("round %d: submit event %q", round, ev)
		}
		if !g.ShowResult || g.RoundScore == nil || len(g.Results) != round+1 {
			t.Fatalf("round %d: result not shown", round)
		}
		if g.SetRating(1) {
			t.Fatalf("round %d: SetRating accepted with result shown", round)
		}
		if g.Results[round].UserRating != 8 {
			t.Fatalf("round %d: rating changed after submit", round)
		}

		ev := g.Confirm(ctx)
		if round < TotalRounds-1 {
			if ev != EventAdvanced || g.ShowResult || g.Rating != DefaultRating || g.RoundScore != nil {
				t.Fatalf("round %d: advance failed ev=%q %+v", round, ev, g)
			}
		} else if ev != EventFinished || g.Phase != PhaseFinished {
			t.Fatalf("last round: ev=%q phase=%s", ev, g.Phase)
		}
	}

	if len(g.Results) != TotalRounds {
		t.Fatalf("results=%d", len(g.Results))
	}
	sum := 0
	for _, r := range g.Results {
		sum += r.Score
	}
	if g.TotalScore() != sum {
		t.Fatalf("TotalScore=%d sum=%d", g.TotalScore(), sum)
	}
	// 8 vs 8, 6.5, 3, 9.2, 5 → 100 + 85 + 50 + 88 + 70
	if sum != 393 {
		t.Fatalf("sum=%d want 393", sum)
	}
	if g.Percentage() != 79 || g.Grade().Letter != "B" {
		t.Fatalf("percentage=%d grade=%s", g.Percentage(), g.Grade().Letter)
	}

	firstPlay := g.PlayID
	if ev := g.Confirm(ctx); ev != EventRestarted {
		t.Fatalf("restart event %q", ev)
	}
	if g.Phase != PhasePlaying || g.Round != 0 || len(g.Results) != 0 || g.TotalScore() != 0 {
		t.Fatalf("restart did not reset: %+v", g)
	}
	if g.PlayID == firstPlay {
		t.Fatal("restart kept the play id")
	}
	if deck.initial != 1 || deck.fresh != 1 {
		t.Fatalf("deck calls initial=%d fresh=%d", deck.initial, deck.fresh)
	}
}

func TestStartWaitsForFullDeck(t *testing.T) {
	ctx := context.Background()
	deck := &countingDeck{list: testAlbums(t, 5, 5)}
	g := New("g2", deck)

	for i := 0; i < 3; i++ {
		if ev := g.Confirm(ctx); ev != EventNone {
			t.Fatalf("confirm %d with short deck = %q", i, ev)
		}
		if g.Phase != PhaseStart || g.PlayID != "" || len(g.Albums) != 0 {
			t.Fatalf("short deck left start: phase=%s albums=%d", g.Phase, len(g.Albums))
		}
	}

	deck.list = nil
	if ev := g.Confirm(ctx); ev != EventNone || g.Phase != PhaseStart {
		t.Fatalf("empty deck: ev=%q phase=%s", ev, g.Phase)
	}

	deck.list = testAlbums(t, 5, 5, 5, 5, 5)
	if ev := g.Confirm(ctx); ev != EventStarted || g.Phase != PhasePlaying {
		t.Fatalf("full deck: ev=%q phase=%s", ev, g.Phase)
	}
}

func TestRestartWaitsForFullDeck(t *testing.T) {
	ctx := context.Background()
	deck := &countingDeck{list: testAlbums(t, 5, 5, 5, 5, 5)}
	g := New("g5", deck)
	for i := 0; i < 2*TotalRounds+1; i++ {
		g.Confirm(ctx)
	}
	if g.Phase != PhaseFinished {
		t.Fatalf("phase=%s", g.Phase)
	}
	played := g.PlayID

	deck.list = nil
	if ev := g.Confirm(ctx); ev != EventNone {
		t.Fatalf("restart with empty deck = %q", ev)
	}
	if g.Phase != PhaseFinished || g.PlayID != played || len(g.Results) != TotalRounds {
		t.Fatalf("finished game disturbed: phase=%s results=%d", g.Phase, len(g.Results))
	}

	deck.list = testAlbums(t, 5, 5, 5, 5, 5)
	if ev := g.Confirm(ctx); ev != EventRestarted {
		t.Fatalf("restart = %q", ev)
	}
}

func TestCancelledLoadKeepsStartPhase(t *testing.T) {
	// A source that blocks until released, so Initial sees the cancelled ctx first.
	release := make(chan struct{})
	src := &blockingSource{release: release, list: testAlbums(t, 1, 2, 3, 4, 5)}
	g := New("g6", albums.NewLoader(src, TotalRounds))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ev := g.Confirm(ctx); ev != EventNone || g.Phase != PhaseStart {
		t.Fatalf("cancelled load: ev=%q phase=%s", ev, g.Phase)
	}

	close(release)
	if ev := g.Confirm(context.Background()); ev != EventStarted || len(g.Albums) != TotalRounds {
		t.Fatalf("retry: ev=%q albums=%d", ev, len(g.Albums))
	}
}

func TestShortPrimaryStillReachesFinished(t *testing.T) {
	ctx := context.Background()
	cat, err := albums.LoadCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	short := &blockingSource{release: closedChan(), list: cat.Albums()[:2]}
	g := New("g7", albums.NewLoader(albums.NewFallbackSource(short, cat), TotalRounds))

	var events []Event
	for i := 0; i < 2*TotalRounds+1; i++ {
		events = append(events, g.Confirm(ctx))
	}
	if g.Phase != PhaseFinished || len(g.Results) != TotalRounds {
		t.Fatalf("phase=%s results=%d events=%v", g.Phase, len(g.Results), events)
	}
	if ev := g.Confirm(ctx); ev != EventRestarted {
		t.Fatalf("play again = %q", ev)
	}
}

// blockingSource serves list once release is closed.
type blockingSource struct {
	release chan struct{}
	list    []albums.Album
}

func (b *blockingSource) RandomAlbums(ctx context.Context, _ int) ([]albums.Album, error) {
	<-b.release
	return b.list, nil
}

func (b *blockingSource) AlbumsByID(context.Context, []string) ([]albums.Album, error) {
	return nil, nil
}

func (b *blockingSource) AlbumByID(context.Context, string) (albums.Album, error) {
	return albums.Album{}, albums.ErrNotFound
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestSetRatingQuantizes(t *testing.T) {
	g := New("g3", albums.FixedDeck(testAlbums(t, 5, 5, 5, 5, 5)))
	g.Confirm(context.Background())
	cases := map[float64]float64{
		-3:    0,
		12:    10,
		7.349: 7.3,
		7.351: 7.4,
	}
	for in, want := range cases {
		g.SetRating(in)
		if g.Rating != want {
			t.Errorf("SetRating(%v) → %v want %v", in, g.Rating, want)
		}
	}
}

func TestSnapshotHidesRatingUntilResult(t *testing.T) {
	ctx := context.Background()
	g := New("g4", albums.FixedDeck(testAlbums(t, 7, 7, 7, 7, 7)))
	if s := g.Snapshot(); s.CenterLabel != "START" || s.Title != "Pitchfork Game" || !s.ShowIcons {
		t.Fatalf("start snapshot %+v", s)
	}
	g.Confirm(ctx)
	s := g.Snapshot()
	if s.Album == nil || s.Album.Rating != nil {
		t.Fatalf("rating leaked before result: %+v", s.Album)
	}
	if s.CenterLabel != "RATE" || s.Title != "Album 1 of 5" || s.ShowIcons {
		t.Fatalf("playing snapshot %+v", s)
	}
	if s.Progress[0] != "active" || s.Progress[1] != "inactive" {
		t.Fatalf("progress %v", s.Progress)
	}
	g.Confirm(ctx)
	s = g.Snapshot()
	if s.Album.Rating == nil || *s.Album.Rating != 7 || s.CenterLabel != "NEXT" {
		t.Fatalf("result snapshot %+v", s)
	}
	if s.RoundScore == nil || *s.RoundScore != 80 {
		t.Fatalf("round score %v", s.RoundScore)
	}
}

func TestStarsFor(t *testing.T) {
	cases := []struct {
		rating float64
		want   Stars
	}{
		{0, Stars{0, false, 5}},
		{5, Stars{2, true, 2}},
		{7.9, Stars{3, true, 1}},
		{10, Stars{5, false, 0}},
	}
	for _, tc := range cases {
		if got := StarsFor(tc.rating); got != tc.want {
			t.Errorf("StarsFor(%v)=%+v want %+v", tc.rating, got, tc.want)
		}
	}
}

func TestProgressDots(t *testing.T) {
	got := ProgressDots(2, 5)
	want := []string{"completed", "completed", "active", "inactive", "inactive"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ProgressDots(2,5)=%v", got)
		}
	}
}

func TestSessionPointerDrivesRating(t *testing.T) {
	ctx := context.Background()
	s := NewSession(SessionOptions{
		ID:          "s1",
		Deck:        albums.FixedDeck(testAlbums(t, 6, 6, 6, 6, 6)),
		Geometry:    dial.Geometry{CenterX: 100, CenterY: 100, CenterRadius: 30},
		Sensitivity: 3,
	})
	defer s.Close()

	// Dial is closed before the game starts.
	if res := s.Pointer(dial.Event{Type: dial.EventDown, Pointer: dial.Pointer{Kind: dial.KindMouse, X: 200, Y: 100}}); res.Handled {
		t.Fatal("down accepted in start phase")
	}
	if ev := s.Confirm(ctx); ev != EventStarted {
		t.Fatalf("confirm=%q", ev)
	}

	// Center press is not a drag.
	res := s.Pointer(dial.Event{Type: dial.EventDown, Pointer: dial.Pointer{Kind: dial.KindMouse, X: 105, Y: 100}})
	if res.Handled || !res.OnCenter {
		t.Fatalf("center down %+v", res)
	}

	// Quarter turn clockwise (screen coordinates): 0° → 90° at sensitivity 3 adds 3.0.
	res = s.Pointer(dial.Event{Type: dial.EventDown, Pointer: dial.Pointer{Kind: dial.KindTouch, X: 200, Y: 100}})
	if !res.Handled || !res.Dragging || !res.PreventDefault {
		t.Fatalf("down %+v", res)
	}
	s.Pointer(dial.Event{Type: dial.EventMove, Pointer: dial.Pointer{Kind: dial.KindTouch, X: 170.71, Y: 170.71}})
	res = s.Pointer(dial.Event{Type: dial.EventMove, Pointer: dial.Pointer{Kind: dial.KindTouch, X: 100, Y: 200}})
	if res.Value != 8 {
		t.Fatalf("value after quarter turn = %v", res.Value)
	}
	res = s.Pointer(dial.Event{Type: dial.EventUp, Pointer: dial.Pointer{Kind: dial.KindTouch, X: 100, Y: 200}})
	if res.Dragging || s.bus.Listeners() != 0 {
		t.Fatalf("up did not end drag: %+v listeners=%d", res, s.bus.Listeners())
	}

	// Moves after up are ignored.
	s.Pointer(dial.Event{Type: dial.EventMove, Pointer: dial.Pointer{Kind: dial.KindTouch, X: 0, Y: 100}})
	if v := s.View(); v.Rating != 8 || v.Dial.Value != 8 {
		t.Fatalf("rating changed after up: %+v", v.Dial)
	}

	if ev := s.Confirm(ctx); ev != EventSubmitted {
		t.Fatalf("submit=%q", ev)
	}
	v := s.View()
	if v.RoundScore == nil || *v.RoundScore != 80 || !v.Dial.Disabled {
		t.Fatalf("after submit: %+v", v)
	}
	if s.SetRating(2) {
		t.Fatal("SetRating accepted with result shown")
	}
}

func TestSessionSummary(t *testing.T) {
	ctx := context.Background()
	s := NewSession(SessionOptions{ID: "s2", Deck: albums.FixedDeck(testAlbums(t, 5, 5, 5, 5, 5)), Mode: ModeDaily, Date: "2024-01-02"})
	if _, ok := s.Summary(); ok {
		t.Fatal("summary before finish")
	}
	s.Confirm(ctx)
	for i := 0; i < TotalRounds; i++ {
		s.Confirm(ctx)
		s.Confirm(ctx)
	}
	sum, ok := s.Summary()
	if !ok {
		t.Fatal("no summary after finish")
	}
	if sum.TotalScore != 500 || sum.Percentage != 100 || sum.Grade.Letter != "A+" || sum.Mode != ModeDaily {
		t.Fatalf("summary %+v", sum)
	}
	if sum.PlayID == "" || sum.PlayID != s.PlayID() {
		t.Fatalf("play id %q", sum.PlayID)
	}
}
