package web

import (
    "context"
    "io"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"

    "github.com/jaminalder/tictactoe-levels/internal/app"
    "github.com/jaminalder/tictactoe-levels/internal/domain"
    "github.com/jaminalder/tictactoe-levels/internal/proto"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
    t.Helper()
    logger := slog.New(slog.NewTextHandler(io.Discard, nil))
    s, err := app.NewService(app.Options{Seed: 5, Logger: logger})
    require.NoError(t, err)
    h := NewServer(s, Options{Logger: logger, Heartbeat: time.Second})
    return s, h
}

func postForm(h http.Handler, path, playerID string, form url.Values) *httptest.ResponseRecorder {
    req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    if playerID != "" {
        req.AddCookie(&http.Cookie{Name: playerCookie, Value: playerID})
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
    if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
        t.Fatalf("index should contain create form; got body: %q", body)
    }
}

func TestHealthz(t *testing.T) {
    _, h := newTestServer(t)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
    assert.Equal(t, http.StatusOK, rr.Code)
    assert.Equal(t, "ok", rr.Body.String())
}

func TestCreateRedirectsToGame(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("POST", "/game", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
        t.Fatalf("expected redirect, got %d", rr.Code)
    }
    loc := rr.Result().Header.Get("Location")
    if !strings.HasPrefix(loc, "/game/") {
        t.Fatalf("expected redirect to /game/{id}, got %q", loc)
    }
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()

    req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    // Cookie set
    var pid string
    for _, c := range rr.Result().Cookies() {
        if c.Name == playerCookie {
            pid = c.Value
            break
        }
    }
    if pid == "" {
        t.Fatalf("expected player_id cookie to be set")
    }
    // Auto-claimed seat
    latest, ok := svc.Get(gs.ID)
    if !ok || latest.Owner != pid {
        t.Fatalf("expected auto-claim; have owner=%q pid=%q", latest.Owner, pid)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
        t.Fatalf("expected SSE wiring in page; got body: %q", body)
    }
    assert.Contains(t, body, "Level 1")
    assert.Contains(t, body, "Easy")
}

func TestGamePageUnknownGame(t *testing.T) {
    _, h := newTestServer(t)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/missing", nil))
    assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()

    rr := postForm(h, "/game/"+gs.ID+"/join", "p1", url.Values{})
    require.Equal(t, http.StatusOK, rr.Code)
    assert.Contains(t, rr.Body.String(), "id=\"board\"")

    latest, _ := svc.Get(gs.ID)
    assert.Equal(t, "p1", latest.Owner)

    // A second visitor only watches; every cell is disabled for them.
    rr = postForm(h, "/game/"+gs.ID+"/join", "p2", url.Values{})
    require.Equal(t, http.StatusOK, rr.Code)
    assert.Equal(t, 9, strings.Count(rr.Body.String(), " disabled"))
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    rr := postForm(h, "/game/"+gs.ID+"/play", "p1", url.Values{"r": {"0"}, "c": {"0"}})
    require.Equal(t, http.StatusOK, rr.Code)
    body := rr.Body.String()
    assert.Contains(t, body, "id=\"board\"")
    assert.Equal(t, 2, strings.Count(body, " disabled"), "filled cells are disabled")

    latest, _ := svc.Get(gs.ID)
    assert.Equal(t, 2, latest.Board.Filled())
    assert.Equal(t, domain.X, latest.Board.At(0, 0))
}

func TestPlayEndpointErrors(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    rr := postForm(h, "/game/"+gs.ID+"/play", "p2", url.Values{"r": {"0"}, "c": {"0"}})
    require.Equal(t, http.StatusOK, rr.Code)
    assert.Contains(t, rr.Body.String(), "You are a spectator")

    rr = postForm(h, "/game/"+gs.ID+"/play", "p1", url.Values{"r": {"7"}, "c": {"0"}})
    assert.Contains(t, rr.Body.String(), "Out of bounds")

    rr = postForm(h, "/game/"+gs.ID+"/play", "p1", url.Values{"r": {"x"}})
    assert.Contains(t, rr.Body.String(), "Out of bounds")

    rr = postForm(h, "/game/missing/play", "p1", url.Values{"r": {"0"}, "c": {"0"}})
    assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResetAndRestartEndpoints(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")
    _, err := svc.Play(gs.ID, "p1", 1, 1)
    require.NoError(t, err)

    rr := postForm(h, "/game/"+gs.ID+"/reset", "p1", nil)
    require.Equal(t, http.StatusOK, rr.Code)
    latest, _ := svc.Get(gs.ID)
    assert.Equal(t, domain.Board{}, latest.Board)

    // Finish the game, then start over.
    for i := 0; i < 20 && !latest.Complete(); i++ {
        cells := latest.Board.EmptyCells()
        _, err := svc.Play(gs.ID, "p1", cells[0].Row, cells[0].Col)
        require.NoError(t, err)
        latest, _ = svc.Get(gs.ID)
    }
    require.True(t, latest.Complete())

    rr = postForm(h, "/game/"+gs.ID+"/play", "p1", url.Values{"r": {"0"}, "c": {"0"}})
    assert.Contains(t, rr.Body.String(), "Game is over")
    assert.Contains(t, rr.Body.String(), "You&#39;ve completed all levels!")
    assert.Contains(t, rr.Body.String(), "/restart")

    rr = postForm(h, "/game/"+gs.ID+"/restart", "p1", nil)
    require.Equal(t, http.StatusOK, rr.Code)
    assert.Contains(t, rr.Body.String(), "Level 1")
    latest, _ = svc.Get(gs.ID)
    assert.Equal(t, domain.Levels[0], latest.Level)
}

func TestBoardEndpoint(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    req := httptest.NewRequest("GET", "/game/"+gs.ID+"/board", nil)
    req.AddCookie(&http.Cookie{Name: playerCookie, Value: "p1"})
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    require.Equal(t, http.StatusOK, rr.Code)
    assert.Equal(t, 0, strings.Count(rr.Body.String(), " disabled"))

    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/"+gs.ID+"/board", nil))
    assert.Equal(t, 9, strings.Count(rr.Body.String(), " disabled"))
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
    _, h := newTestServer(t)
    // create a game via POST
    reqCreate := httptest.NewRequest("POST", "/game", nil)
    rrCreate := httptest.NewRecorder()
    h.ServeHTTP(rrCreate, reqCreate)
    loc := rrCreate.Result().Header.Get("Location")
    if loc == "" {
        t.Fatalf("missing redirect location")
    }
    // Request SSE
    req := httptest.NewRequest("GET", loc+"/events", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    ct := rr.Result().Header.Get("Content-Type")
    if !strings.HasPrefix(ct, "text/event-stream") {
        t.Fatalf("expected text/event-stream, got %q", ct)
    }
}

func TestEventsStreamDeliversBoardEvent(t *testing.T) {
    svc, h := newTestServer(t)
    ts := httptest.NewServer(h)
    defer ts.Close()
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/game/"+gs.ID+"/events", nil)
    req.Header.Set("Accept", "text/event-stream")
    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    defer resp.Body.Close()
    require.Equal(t, http.StatusOK, resp.StatusCode)

    // The subscription is registered before headers are flushed.
    _, err = svc.Play(gs.ID, "p1", 0, 0)
    require.NoError(t, err)

    buf := make([]byte, 0, 4096)
    chunk := make([]byte, 1024)
    for !strings.Contains(string(buf), "\n\n") {
        n, err := resp.Body.Read(chunk)
        require.NoError(t, err)
        buf = append(buf, chunk[:n]...)
    }
    got := string(buf)
    assert.True(t, strings.HasPrefix(got, "event: board\n"), "got %q", got)
    assert.Contains(t, got, `"type":"cell_filled"`)
}

func TestWebSocketStreamsUpdates(t *testing.T) {
    svc, h := newTestServer(t)
    ts := httptest.NewServer(h)
    defer ts.Close()
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + gs.ID + "/ws"
    c, _, err := websocket.Dial(ctx, u, nil)
    require.NoError(t, err)
    defer c.Close(websocket.StatusNormalClosure, "bye")

    var first proto.Update
    require.NoError(t, wsjson.Read(ctx, c, &first))
    assert.Equal(t, proto.TypeUpdate, first.Type)
    assert.Equal(t, gs.ID, first.GameID)
    assert.Empty(t, first.Events)
    assert.Equal(t, 1, first.State.Level)
    assert.Equal(t, "Easy", first.State.Tier)

    _, err = svc.Play(gs.ID, "p1", 0, 0)
    require.NoError(t, err)

    var next proto.Update
    require.NoError(t, wsjson.Read(ctx, c, &next))
    require.Len(t, next.Events, 2)
    assert.Equal(t, proto.TypeCellFilled, next.Events[0].Type)
    require.NotNil(t, next.Events[0].Row)
    assert.Equal(t, 0, *next.Events[0].Row)
    assert.Equal(t, "X", next.State.Board[0])
}

func TestWebSocketUnknownGame(t *testing.T) {
    _, h := newTestServer(t)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/missing/ws", nil))
    assert.Equal(t, http.StatusNotFound, rr.Code)
}
