package web

import (
    "log/slog"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"

    "github.com/jaminalder/tictactoe-levels/internal/app"
)

// Options tune the HTTP shell.
type Options struct {
    Logger *slog.Logger
    // Heartbeat is the keep-alive interval of the event streams.
    Heartbeat time.Duration
}

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, opts Options) http.Handler {
    if opts.Logger == nil {
        opts.Logger = slog.Default()
    }
    if opts.Heartbeat <= 0 {
        opts.Heartbeat = 15 * time.Second
    }
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(requestLogger(opts.Logger))
    r.Use(middleware.Recoverer)

    h := &handlers{svc: s, tpl: loadTemplates(), log: opts.Logger, heartbeat: opts.Heartbeat}
    r.Get("/", h.index)
    r.Get("/healthz", h.health)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Get("/board", h.board)
        r.Post("/join", h.join)
        r.Post("/play", h.play)
        r.Post("/reset", h.reset)
        r.Post("/restart", h.restart)
        r.Get("/events", h.events)
        r.Get("/ws", h.socket)
    })
    return r
}

// requestLogger logs method, path, status, bytes, and duration of each request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            next.ServeHTTP(ww, r)
            logger.Info("http",
                "method", r.Method,
                "path", r.URL.Path,
                "status", ww.Status(),
                "bytes", ww.BytesWritten(),
                "dur", time.Since(start).Round(time.Millisecond),
                "request_id", middleware.GetReqID(r.Context()),
            )
        })
    }
}
