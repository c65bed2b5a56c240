// Command server serves the Tic-Tac-Toe levels game over HTTP.
package main

import (
    "context"
    "errors"
    "flag"
    "log/slog"
    "net"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/jaminalder/tictactoe-levels/internal/app"
    "github.com/jaminalder/tictactoe-levels/internal/config"
    "github.com/jaminalder/tictactoe-levels/internal/web"
)

func main() {
    cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
    if err != nil {
        slog.Error("parse config", "err", err)
        os.Exit(2)
    }
    lvl, _ := cfg.Level()
    logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if err := run(ctx, cfg, logger); err != nil {
        logger.Error("server error", "err", err)
        os.Exit(1)
    }
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
    svc, err := app.NewService(app.Options{Seed: cfg.Seed, Logger: logger})
    if err != nil {
        return err
    }

    srv := &http.Server{
        Addr:              cfg.HTTPAddr,
        Handler:           web.NewServer(svc, web.Options{Logger: logger, Heartbeat: cfg.Heartbeat}),
        ReadHeaderTimeout: 5 * time.Second,
        // Event streams end with ctx so Shutdown does not wait on them.
        BaseContext: func(net.Listener) context.Context { return ctx },
    }

    go prune(ctx, svc, cfg.SessionTTL)

    errc := make(chan error, 1)
    go func() {
        logger.Info("listening", "addr", cfg.HTTPAddr, "session_ttl", cfg.SessionTTL)
        errc <- srv.ListenAndServe()
    }()

    select {
    case err := <-errc:
        if errors.Is(err, http.ErrServerClosed) {
            return nil
        }
        return err
    case <-ctx.Done():
    }

    logger.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    return srv.Shutdown(shutdownCtx)
}

// prune drops idle games until ctx ends.
func prune(ctx context.Context, svc *app.Service, ttl time.Duration) {
    if ttl <= 0 {
        return
    }
    interval := ttl / 4
    if interval < time.Minute {
        interval = time.Minute
    }
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            svc.Prune(ttl)
        }
    }
}
