package web

import (
    "bytes"
    "context"
    "encoding/json"
    "math/rand"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"

    "github.com/jaminalder/tictactoe-solver/internal/app"
    "github.com/jaminalder/tictactoe-solver/internal/domain"
    "github.com/jaminalder/tictactoe-solver/internal/player"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
    t.Helper()
    s := app.NewService()
    s.SetComputer(player.NewComputerWithRand(1, rand.New(rand.NewSource(1))))
    h := NewServer(s)
    return s, h
}

func postForm(h http.Handler, path string, form url.Values, playerID string) *httptest.ResponseRecorder {
    req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    if playerID != "" {
        req.AddCookie(&http.Cookie{Name: "player_id", Value: playerID})
    }
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestIndexPage(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") || !strings.Contains(body, "name=\"computer\"") {
        t.Fatalf("index should contain create form; got body: %q", body)
    }
}

func TestHealth(t *testing.T) {
    _, h := newTestServer(t)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
    if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
        t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
    }
}

func TestCreateRedirectsToGame(t *testing.T) {
    svc, h := newTestServer(t)
    rr := postForm(h, "/game", url.Values{"computer": {"x"}}, "")
    if rr.Code != http.StatusSeeOther {
        t.Fatalf("expected redirect, got %d", rr.Code)
    }
    loc := rr.Result().Header.Get("Location")
    if !strings.HasPrefix(loc, "/game/") {
        t.Fatalf("expected redirect to /game/{id}, got %q", loc)
    }
    gs, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
    if !ok || gs.Computer != domain.X || gs.Game.Moves != 1 {
        t.Fatalf("expected computer to have opened as X, got %+v", gs)
    }
}

func TestCreateRejectsUnknownSide(t *testing.T) {
    _, h := newTestServer(t)
    rr := postForm(h, "/game", url.Values{"computer": {"z"}}, "")
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400, got %d", rr.Code)
    }
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame(context.Background(), domain.Empty)

    req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    var playerID string
    for _, c := range rr.Result().Cookies() {
        if c.Name == "player_id" {
            playerID = c.Value
            break
        }
    }
    if playerID == "" {
        t.Fatalf("expected player_id cookie to be set")
    }
    latest, ok := svc.Get(gs.ID)
    if !ok || latest.X != playerID {
        t.Fatalf("expected auto-claim of X; have X=%q O=%q pid=%q", latest.X, latest.O, playerID)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
        t.Fatalf("expected SSE wiring in page; got body: %q", body)
    }
    if !strings.Contains(body, "value=\"c3\"") || !strings.Contains(body, "X to move") {
        t.Fatalf("expected labelled board with status; got body: %q", body)
    }
}

func TestComputerCookieIsReplaced(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame(context.Background(), domain.O)

    rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"cell": {"a1"}}, app.ComputerID)
    if !strings.Contains(rr.Body.String(), "You are a spectator") {
        t.Fatalf("engine seat id must not play, got %q", rr.Body.String())
    }
    var playerID string
    for _, c := range rr.Result().Cookies() {
        if c.Name == "player_id" {
            playerID = c.Value
        }
    }
    if playerID == "" || playerID == app.ComputerID {
        t.Fatalf("expected a fresh player_id cookie, got %q", playerID)
    }
    if latest, _ := svc.Get(gs.ID); latest.Game.Moves != 0 || latest.O != app.ComputerID {
        t.Fatalf("expected untouched game, moves=%d O=%q", latest.Game.Moves, latest.O)
    }

    req := httptest.NewRequest("GET", "/game/"+gs.ID, nil)
    req.AddCookie(&http.Cookie{Name: "player_id", Value: app.ComputerID})
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    latest, _ := svc.Get(gs.ID)
    if latest.X == "" || latest.X == app.ComputerID {
        t.Fatalf("expected the visitor seated as X under a fresh id, got X=%q", latest.X)
    }
}

func TestGamePageNotFound(t *testing.T) {
    _, h := newTestServer(t)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/nope", nil))
    if rr.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", rr.Code)
    }
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame(context.Background(), domain.Empty)
    svc.Join(gs.ID, "p1")
    rr := postForm(h, "/game/"+gs.ID+"/join", url.Values{}, "p2")
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if !strings.Contains(rr.Body.String(), "id=\"board\"") {
        t.Fatalf("expected board fragment, got %q", rr.Body.String())
    }
    latest, _ := svc.Get(gs.ID)
    if latest.O != "p2" {
        t.Fatalf("expected O seat for p2, got X=%q O=%q", latest.X, latest.O)
    }
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame(context.Background(), domain.Empty)
    svc.Join(gs.ID, "p1")
    svc.Join(gs.ID, "p2")

    rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"0"}, "c": {"0"}}, "p1")
    if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "id=\"board\"") {
        t.Fatalf("expected board fragment, got %d %q", rr.Code, rr.Body.String())
    }
    rr = postForm(h, "/game/"+gs.ID+"/play", url.Values{"cell": {"B2"}}, "p2")
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    latest, _ := svc.Get(gs.ID)
    if latest.Game.Moves != 2 || latest.Game.Board[4] != domain.O {
        t.Fatalf("expected both moves applied, moves=%d board=%v", latest.Game.Moves, latest.Game.Board)
    }
}

func TestPlayEndpointReportsErrors(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame(context.Background(), domain.Empty)
    svc.Join(gs.ID, "p1")
    svc.Join(gs.ID, "p2")

    cases := []struct {
        form   url.Values
        player string
        want   string
    }{
        {url.Values{"cell": {"a1"}}, "p2", "Not your turn"},
        {url.Values{"cell": {"d1"}}, "p1", "Out of bounds"},
        {url.Values{"cell": {"?"}}, "p1", "Unreadable coordinate"},
        {url.Values{"cell": {"a1"}}, "p9", "You are a spectator"},
    }
    for _, tc := range cases {
        rr := postForm(h, "/game/"+gs.ID+"/play", tc.form, tc.player)
        if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), tc.want) {
            t.Fatalf("%v by %s: expected %q, got %d %q", tc.form, tc.player, tc.want, rr.Code, rr.Body.String())
        }
    }
    if latest, _ := svc.Get(gs.ID); latest.Game.Moves != 0 {
        t.Fatalf("rejected moves must not apply, moves=%d", latest.Game.Moves)
    }
}

func TestAnalysisEndpoint(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame(context.Background(), domain.Empty)
    svc.Join(gs.ID, "p1")
    svc.Join(gs.ID, "p2")
    ctx := context.Background()
    svc.Play(ctx, gs.ID, "p1", 0, 0)
    svc.Play(ctx, gs.ID, "p2", 1, 0)
    svc.Play(ctx, gs.ID, "p1", 0, 1)

    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/"+gs.ID+"/analysis", nil))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    var resp analysisResponse
    if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if resp.Turn != "O" || resp.Over || len(resp.Moves) != 6 {
        t.Fatalf("unexpected analysis: %+v", resp)
    }
    if resp.Moves[0].Cell != "a3" {
        t.Fatalf("expected the block at a3 first, got %+v", resp.Moves[0])
    }
    last := resp.Moves[len(resp.Moves)-1]
    if last.Outcome != "losing" || last.Text != "O loses in 1 move." {
        t.Fatalf("unexpected worst move %+v", last)
    }
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
    _, h := newTestServer(t)
    rrCreate := postForm(h, "/game", url.Values{}, "")
    loc := rrCreate.Result().Header.Get("Location")
    if loc == "" {
        t.Fatalf("missing redirect location")
    }
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", loc+"/events", nil))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
        t.Fatalf("expected text/event-stream, got %q", ct)
    }
}

func TestWriteEventFramesEachLine(t *testing.T) {
    var buf bytes.Buffer
    writeEvent(&buf, "board", []byte("<div>\n  x\n</div>"))
    want := "event: board\ndata: <div>\ndata:   x\ndata: </div>\n\n"
    if buf.String() != want {
        t.Fatalf("unexpected frame %q", buf.String())
    }
}
