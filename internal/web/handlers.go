package web

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/google/uuid"
    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"

    "github.com/jaminalder/tictactoe-levels/internal/app"
    "github.com/jaminalder/tictactoe-levels/internal/domain"
)

const playerCookie = "player_id"

var writeTimeout = 5 * time.Second

type handlers struct {
    svc       *app.Service
    tpl       *templates
    log       *slog.Logger
    heartbeat time.Duration
}

func (h *handlers) writeBoard(w http.ResponseWriter, gs app.GameState, errMsg string, spectator bool) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg, spectator)))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
    _, _ = io.WriteString(w, "ok")
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    gs, err := h.svc.CreateGame()
    if err != nil {
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    // ensure cookie and auto-claim seat
    pid := ensurePlayerCookie(w, r)
    side, gs, err := h.svc.Join(id, pid)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.game, "", newBoardView(*gs, "", side == domain.Empty)))
}

func (h *handlers) board(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    pid := playerID(r)
    h.writeBoard(w, *gs, "", pid == "" || pid != gs.Owner)
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    side, gs, err := h.svc.Join(id, pid)
    if err != nil || gs == nil {
        http.NotFound(w, r)
        return
    }
    h.writeBoard(w, *gs, "", side == domain.Empty)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    ri, errR := strconv.Atoi(r.Form.Get("r"))
    ci, errC := strconv.Atoi(r.Form.Get("c"))
    if errR != nil || errC != nil {
        h.respond(w, r, nil, domain.ErrOutOfBounds)
        return
    }
    id, pid := chi.URLParam(r, "id"), ensurePlayerCookie(w, r)
    gs, err := h.svc.Play(id, pid, ri, ci)
    h.respond(w, r, gs, err)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
    id, pid := chi.URLParam(r, "id"), ensurePlayerCookie(w, r)
    gs, err := h.svc.Reset(id, pid)
    h.respond(w, r, gs, err)
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
    id, pid := chi.URLParam(r, "id"), ensurePlayerCookie(w, r)
    gs, err := h.svc.Restart(id, pid)
    h.respond(w, r, gs, err)
}

// respond renders the board after a command, with a short message when it failed.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, gs *app.GameState, err error) {
    id := chi.URLParam(r, "id")
    var errMsg string
    if err != nil {
        if gs == nil {
            if g, ok := h.svc.Get(id); ok {
                gs = g
            }
        }
        switch {
        case errors.Is(err, app.ErrNotAPlayer):
            errMsg = "You are a spectator"
        case errors.Is(err, domain.ErrOutOfBounds):
            errMsg = "Out of bounds"
        case errors.Is(err, domain.ErrGameComplete):
            errMsg = "Game is over"
        default:
            h.log.Error("command failed", "game", id, "err", err)
            errMsg = "Invalid move"
        }
    }
    if gs == nil {
        http.NotFound(w, r)
        return
    }
    h.writeBoard(w, *gs, errMsg, errors.Is(err, app.ErrNotAPlayer))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        w.WriteHeader(http.StatusOK)
        return
    }
    defer unsub()
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    // Initial flush of headers
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case u, ok := <-ch:
            if !ok {
                return
            }
            b, err := json.Marshal(u.Message())
            if err != nil {
                h.log.Error("encode update", "game", id, "err", err)
                continue
            }
            // Board event; the page refetches its own fragment on it.
            _, _ = fmt.Fprintf(w, "event: board\ndata: %s\n\n", b)
            flusher.Flush()
        }
    }
}

func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    c, err := websocket.Accept(w, r, nil)
    if err != nil {
        h.log.Warn("websocket accept", "game", id, "err", err)
        return
    }
    defer c.CloseNow()

    // Clients only listen; CloseRead handles control frames and cancels ctx on close.
    ctx := c.CloseRead(r.Context())
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        c.Close(websocket.StatusGoingAway, "game not found")
        return
    }
    defer unsub()

    // Snapshot after subscribing so no update falls in between.
    gs, ok := h.svc.Get(id)
    if !ok {
        c.Close(websocket.StatusGoingAway, "game not found")
        return
    }
    if err := h.writeJSON(ctx, c, app.Update{State: *gs}); err != nil {
        return
    }

    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            pctx, cancel := context.WithTimeout(ctx, writeTimeout)
            err := c.Ping(pctx)
            cancel()
            if err != nil {
                return
            }
        case u, ok := <-ch:
            if !ok {
                c.Close(websocket.StatusGoingAway, "game closed")
                return
            }
            if err := h.writeJSON(ctx, c, u); err != nil {
                h.log.Debug("websocket write", "game", id, "err", err)
                return
            }
        }
    }
}

func (h *handlers) writeJSON(ctx context.Context, c *websocket.Conn, u app.Update) error {
    ctx, cancel := context.WithTimeout(ctx, writeTimeout)
    defer cancel()
    return wsjson.Write(ctx, c, u.Message())
}

func playerID(r *http.Request) string {
    if c, err := r.Cookie(playerCookie); err == nil {
        return c.Value
    }
    return ""
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
    if v := playerID(r); v != "" {
        return v
    }
    // Generate UUIDv4 for player ID
    v := uuid.NewString()
    http.SetCookie(w, &http.Cookie{Name: playerCookie, Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
    return v
}
