package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/config"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/db"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/game"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/store"
)

type testEnv struct {
	ts  *httptest.Server
	srv *Server
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	cfg, err := config.Parse(nil, func(k string) string {
		return map[string]string{"ALBUMS_SOURCE": "static", "JWT_SECRET": "test-secret"}[k]
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	conn, err := db.OpenMigrated(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	cat, err := albums.LoadCatalog("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	srv := New(cfg, Deps{
		Store:   store.NewMemoryStore(),
		DB:      conn,
		Albums:  albums.NewFallbackSource(nil, cat),
		Catalog: cat,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, srv: srv}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

// call sends body as JSON and decodes the response into out (if non-nil).
func (e *testEnv) call(t *testing.T, c *http.Client, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("%s %s: content-type %q", method, path, ct)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) confirm(t *testing.T, c *http.Client, id string, want game.Event) game.View {
	t.Helper()
	var res confirmRes
	if code := e.call(t, c, http.MethodPost, "/game/"+id+"/confirm", nil, &res); code != http.StatusOK {
		t.Fatalf("confirm status %d", code)
	}
	if res.Event != want {
		t.Fatalf("confirm event %q want %q", res.Event, want)
	}
	return res.State
}

// playOut rates every remaining round at rating and returns the final view.
func (e *testEnv) playOut(t *testing.T, c *http.Client, id string, from int, rating float64) game.View {
	t.Helper()
	var v game.View
	for round := from; round < game.TotalRounds; round++ {
		if code := e.call(t, c, http.MethodPost, "/game/"+id+"/rating", map[string]float64{"rating": rating}, &v); code != http.StatusOK {
			t.Fatalf("round %d: rating status %d", round, code)
		}
		e.confirm(t, c, id, game.EventSubmitted)
		want := game.EventAdvanced
		if round == game.TotalRounds-1 {
			want = game.EventFinished
		}
		v = e.confirm(t, c, id, want)
	}
	return v
}

func TestHealthAndNotFound(t *testing.T) {
	e := setupServer(t)
	c := newClient(t)
	var health map[string]any
	if code := e.call(t, c, http.MethodGet, "/health", nil, &health); code != http.StatusOK || health["ok"] != true {
		t.Fatalf("health %d %v", code, health)
	}
	if code := e.call(t, c, http.MethodGet, "/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown route status %d", code)
	}
	if code := e.call(t, c, http.MethodGet, "/game/does-not-exist", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown game status %d", code)
	}
}

func TestFullGameOverHTTP(t *testing.T) {
	e := setupServer(t)
	c := newClient(t)

	var v game.View
	if code := e.call(t, c, http.MethodPost, "/game/new", nil, &v); code != http.StatusOK {
		t.Fatalf("new status %d", code)
	}
	if v.Phase != game.PhaseStart || v.CenterLabel != "START" || !v.Dial.Disabled || v.Mode != game.ModeClassic {
		t.Fatalf("new game view %+v", v)
	}
	id := v.ID

	v = e.confirm(t, c, id, game.EventStarted)
	if v.Phase != game.PhasePlaying || v.Album == nil || v.Album.Rating != nil || v.Dial.Disabled {
		t.Fatalf("started view %+v", v)
	}

	// Quarter turn around the default wheel (center 96,96): +3.0 at sensitivity 3.
	steps := []pointerReq{
		{Type: "down", Kind: "touch", X: 192, Y: 96},
		{Type: "move", Kind: "touch", X: 164, Y: 164},
		{Type: "move", Kind: "touch", X: 96, Y: 192},
	}
	var pr pointerRes
	for _, p := range steps {
		if code := e.call(t, c, http.MethodPost, "/game/"+id+"/pointer", p, &pr); code != http.StatusOK {
			t.Fatalf("pointer %s status %d", p.Type, code)
		}
	}
	if !pr.Pointer.Dragging || !pr.Pointer.PreventDefault || pr.State.Rating != 8 {
		t.Fatalf("after drag %+v rating=%v", pr.Pointer, pr.State.Rating)
	}
	e.call(t, c, http.MethodPost, "/game/"+id+"/pointer", pointerReq{Type: "up", Kind: "touch", X: 96, Y: 192}, &pr)
	if pr.Pointer.Dragging {
		t.Fatal("still dragging after up")
	}

	v = e.confirm(t, c, id, game.EventSubmitted)
	if v.Album == nil || v.Album.Rating == nil || v.RoundScore == nil {
		t.Fatalf("result view %+v", v)
	}
	if want := game.CalculateScore(8, *v.Album.Rating); *v.RoundScore != want {
		t.Fatalf("round score %d want %d", *v.RoundScore, want)
	}
	if code := e.call(t, c, http.MethodPost, "/game/"+id+"/rating", map[string]float64{"rating": 3}, nil); code != http.StatusConflict {
		t.Fatalf("rating with result shown: status %d", code)
	}
	e.confirm(t, c, id, game.EventAdvanced)

	v = e.playOut(t, c, id, 1, 5)
	if v.Phase != game.PhaseFinished || len(v.Results) != game.TotalRounds || v.Grade == nil || v.CenterLabel != "AGAIN" {
		t.Fatalf("final view %+v", v)
	}
	sum := 0
	for _, r := range v.Results {
		sum += r.Score
	}
	if v.TotalScore != sum || v.MaxScore != 500 || v.Percentage != game.Percentage(sum, game.TotalRounds) {
		t.Fatalf("totals %d/%d %d%%", v.TotalScore, v.MaxScore, v.Percentage)
	}

	var rows int
	if err := e.srv.db.QueryRow(`SELECT COUNT(*) FROM games WHERE anonymous_id IS NOT NULL`).Scan(&rows); err != nil || rows != 1 {
		t.Fatalf("persisted games=%d err=%v", rows, err)
	}
	if err := e.srv.db.QueryRow(`SELECT COUNT(*) FROM game_rounds`).Scan(&rows); err != nil || rows != game.TotalRounds {
		t.Fatalf("persisted rounds=%d err=%v", rows, err)
	}

	v = e.confirm(t, c, id, game.EventRestarted)
	if v.Phase != game.PhasePlaying || len(v.Results) != 0 || v.Round != 0 {
		t.Fatalf("restart view %+v", v)
	}
}

func TestSessionsAreOwnerScoped(t *testing.T) {
	e := setupServer(t)
	owner, stranger := newClient(t), newClient(t)

	var v game.View
	e.call(t, owner, http.MethodPost, "/game/new", nil, &v)
	if code := e.call(t, stranger, http.MethodGet, "/game/"+v.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("stranger got status %d", code)
	}
	if code := e.call(t, owner, http.MethodGet, "/game/"+v.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("owner got status %d", code)
	}
	if code := e.call(t, owner, http.MethodDelete, "/game/"+v.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("delete status %d", code)
	}
	if code := e.call(t, owner, http.MethodGet, "/game/"+v.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted session status %d", code)
	}
}

func TestPointerValidation(t *testing.T) {
	e := setupServer(t)
	c := newClient(t)
	var v game.View
	e.call(t, c, http.MethodPost, "/game/new", nil, &v)

	cases := []struct {
		name string
		body any
	}{
		{"unknown type", map[string]any{"type": "hover", "x": 1, "y": 1}},
		{"unknown kind", map[string]any{"type": "down", "kind": "pen", "x": 1, "y": 1}},
		{"not json", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := e.call(t, c, http.MethodPost, "/game/"+v.ID+"/pointer", tc.body, nil); code != http.StatusBadRequest {
				t.Fatalf("status %d", code)
			}
		})
	}

	// Before the game starts the wheel ignores gestures.
	var pr pointerRes
	e.call(t, c, http.MethodPost, "/game/"+v.ID+"/pointer", pointerReq{Type: "down", X: 192, Y: 96}, &pr)
	if pr.Pointer.Handled || pr.Pointer.Dragging {
		t.Fatalf("down accepted before start: %+v", pr.Pointer)
	}
	if code := e.call(t, c, http.MethodPost, "/game/"+v.ID+"/rating", map[string]float64{"rating": 4}, nil); code != http.StatusConflict {
		t.Fatalf("rating before start: status %d", code)
	}
	if code := e.call(t, c, http.MethodPost, "/game/"+v.ID+"/rating", map[string]any{}, nil); code != http.StatusBadRequest {
		t.Fatalf("rating without value: status %d", code)
	}
}

func TestAuthStatsAndHistory(t *testing.T) {
	e := setupServer(t)
	c := newClient(t)

	creds := credentials{Username: "critic_01", Password: "correct horse"}
	if code := e.call(t, c, http.MethodPost, "/auth/signup", creds, nil); code != http.StatusOK {
		t.Fatalf("signup status %d", code)
	}
	if code := e.call(t, newClient(t), http.MethodPost, "/auth/signup", creds, nil); code != http.StatusConflict {
		t.Fatalf("duplicate signup status %d", code)
	}
	if code := e.call(t, newClient(t), http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "short"}, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid signup status %d", code)
	}

	var me authUser
	if code := e.call(t, c, http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK || me.Username != "critic_01" {
		t.Fatalf("me %d %+v", code, me)
	}

	var v game.View
	e.call(t, c, http.MethodPost, "/game/new", nil, &v)
	e.confirm(t, c, v.ID, game.EventStarted)
	final := e.playOut(t, c, v.ID, 0, 5)

	var stats statsRes
	if code := e.call(t, c, http.MethodGet, "/stats/me", nil, &stats); code != http.StatusOK {
		t.Fatalf("stats status %d", code)
	}
	if stats.GamesPlayed != 1 || stats.TotalScore != final.TotalScore || stats.BestScore != final.TotalScore {
		t.Fatalf("stats %+v final=%d", stats, final.TotalScore)
	}

	var games []gameRow
	if code := e.call(t, c, http.MethodGet, "/games/mine", nil, &games); code != http.StatusOK || len(games) != 1 {
		t.Fatalf("games/mine %d %+v", code, games)
	}
	var detail struct {
		Game   gameRow    `json:"game"`
		Rounds []roundRow `json:"rounds"`
	}
	if code := e.call(t, c, http.MethodGet, "/games/mine/"+games[0].ID, nil, &detail); code != http.StatusOK {
		t.Fatalf("game detail status %d", code)
	}
	if len(detail.Rounds) != game.TotalRounds || detail.Game.Grade != final.Grade.Letter {
		t.Fatalf("detail %+v", detail)
	}
	for _, rr := range detail.Rounds {
		if rr.ArtURL == "" || rr.Hint == "" {
			t.Fatalf("round %d not hydrated: %+v", rr.Round, rr)
		}
	}

	e.call(t, c, http.MethodPost, "/auth/logout", nil, nil)
	if code := e.call(t, c, http.MethodGet, "/stats/me", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("stats after logout status %d", code)
	}
	if code := e.call(t, c, http.MethodPost, "/auth/login", credentials{Username: "critic_01", Password: "wrong pass"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login status %d", code)
	}
	if code := e.call(t, c, http.MethodPost, "/auth/login", creds, nil); code != http.StatusOK {
		t.Fatalf("login status %d", code)
	}
}

func TestDailyChallenge(t *testing.T) {
	e := setupServer(t)
	c := newClient(t)

	var first, again newRes
	if code := e.call(t, c, http.MethodPost, "/daily/new", nil, &first); code != http.StatusOK || first.Played || first.GameID == "" {
		t.Fatalf("daily/new %d %+v", code, first)
	}
	e.call(t, c, http.MethodPost, "/daily/new", nil, &again)
	if again.GameID != first.GameID {
		t.Fatalf("daily session not reused: %s vs %s", first.GameID, again.GameID)
	}
	if first.State == nil || first.State.Mode != game.ModeDaily || first.State.Date != first.Date {
		t.Fatalf("daily state %+v", first.State)
	}

	// Everyone gets the same albums today.
	var other newRes
	stranger := newClient(t)
	e.call(t, stranger, http.MethodPost, "/daily/new", nil, &other)
	a := e.confirm(t, c, first.GameID, game.EventStarted)
	b := e.confirm(t, stranger, other.GameID, game.EventStarted)
	if a.Album == nil || b.Album == nil || a.Album.ID != b.Album.ID {
		t.Fatalf("daily albums differ: %+v vs %+v", a.Album, b.Album)
	}

	final := e.playOut(t, c, first.GameID, 0, 6)

	var done newRes
	e.call(t, c, http.MethodPost, "/daily/new", nil, &done)
	if !done.Played || done.GameID != "" {
		t.Fatalf("daily/new after finishing %+v", done)
	}

	var lb lbRes
	if code := e.call(t, c, http.MethodGet, "/daily/leaderboard", nil, &lb); code != http.StatusOK {
		t.Fatalf("leaderboard status %d", code)
	}
	if lb.Date != first.Date || len(lb.Top) != 1 || lb.Top[0].Score != final.TotalScore {
		t.Fatalf("leaderboard %+v", lb)
	}
	if code := e.call(t, c, http.MethodGet, "/daily/leaderboard?date=yesterday", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad date status %d", code)
	}
}
