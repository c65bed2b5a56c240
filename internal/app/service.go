package app

import (
    "context"
    "errors"
    "log/slog"
    "math/rand/v2"
    "sync"
    "time"

    "github.com/jaminalder/tictactoe-levels/internal/domain"
    "github.com/jaminalder/tictactoe-levels/internal/proto"
)

// Errors exposed by the service layer.
var (
    ErrNotFound   = errors.New("game not found")
    ErrNotAPlayer = errors.New("not a player")
)

// GameState is a snapshot of one game session.
type GameState struct {
    ID         string
    Owner      string
    Board      domain.Board
    Level      domain.Level
    Phase      domain.Phase
    Turn       domain.Cell
    Outcome    domain.Outcome
    HasOutcome bool
    Results    []domain.RoundResult
    Created    time.Time
    Updated    time.Time
}

// Complete reports whether every level has been played.
func (gs GameState) Complete() bool { return gs.Phase == domain.GameComplete }

// Notice is the message a shell shows after a round ends.
func (gs GameState) Notice() string {
    switch {
    case gs.Complete():
        return "You've completed all levels!"
    case gs.HasOutcome:
        return gs.Outcome.String()
    default:
        return ""
    }
}

// Proto converts the snapshot to its wire form.
func (gs GameState) Proto() proto.State {
    return proto.State{
        Board:  proto.BoardCells(gs.Board),
        Level:  gs.Level.Number,
        Tier:   gs.Level.Tier.String(),
        Phase:  gs.Phase.String(),
        Turn:   gs.Turn.String(),
        Notice: gs.Notice(),
    }
}

// Update is delivered to subscribers after every accepted command.
type Update struct {
    State  GameState
    Events []proto.Event
}

// Message converts the update to its wire form.
func (u Update) Message() proto.Update {
    events := u.Events
    if events == nil {
        events = []proto.Event{}
    }
    return proto.Update{Type: proto.TypeUpdate, GameID: u.State.ID, State: u.State.Proto(), Events: events}
}

// eventLog collects controller events until the service drains them.
type eventLog struct {
    events []proto.Event
}

func (l *eventLog) CellFilled(row, col int, s domain.Cell) {
    l.events = append(l.events, proto.CellFilled(row, col, s))
}
func (l *eventLog) RoundOver(o domain.Outcome) { l.events = append(l.events, proto.RoundOver(o)) }
func (l *eventLog) LevelAdvanced(lvl domain.Level) {
    l.events = append(l.events, proto.LevelAdvanced(lvl))
}
func (l *eventLog) GameComplete(rs []domain.RoundResult) {
    l.events = append(l.events, proto.GameComplete(rs))
}
func (l *eventLog) BoardReset() { l.events = append(l.events, proto.BoardReset()) }

func (l *eventLog) drain() []proto.Event {
    out := l.events
    l.events = nil
    return out
}

type session struct {
    id      string
    owner   string
    ctl     *domain.Controller
    log     *eventLog
    created time.Time
    updated time.Time
}

func (g *session) snapshot() GameState {
    out, ok := g.ctl.LastOutcome()
    return GameState{
        ID:         g.id,
        Owner:      g.owner,
        Board:      g.ctl.Board(),
        Level:      g.ctl.Level(),
        Phase:      g.ctl.Phase(),
        Turn:       g.ctl.Turn(),
        Outcome:    out,
        HasOutcome: ok,
        Results:    g.ctl.Results(),
        Created:    g.created,
        Updated:    g.updated,
    }
}

type subscriber struct {
    ch        chan Update
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Options configure a Service.
type Options struct {
    // Seed fixes the opponents' random moves. Zero picks a seed at startup.
    Seed   uint64
    Logger *slog.Logger
    Now    func() time.Time
}

// Service manages game sessions and subscribers.
type Service struct {
    mu    sync.Mutex
    games map[string]*session
    subs  map[string]map[*subscriber]struct{}
    seed  uint64
    seq   uint64
    log   *slog.Logger
    now   func() time.Time
}

// NewService creates a service with the given options.
func NewService(opts Options) (*Service, error) {
    if opts.Seed == 0 {
        seed, err := newSeed()
        if err != nil {
            return nil, err
        }
        opts.Seed = seed
    }
    if opts.Logger == nil {
        opts.Logger = slog.Default()
    }
    if opts.Now == nil {
        opts.Now = time.Now
    }
    return &Service{
        games: make(map[string]*session),
        subs:  make(map[string]map[*subscriber]struct{}),
        seed:  opts.Seed,
        log:   opts.Logger,
        now:   opts.Now,
    }, nil
}

// CreateGame creates and registers a new game at level 1.
func (s *Service) CreateGame() (*GameState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.seq++
    rng := rand.New(rand.NewPCG(s.seed, s.seq))
    events := &eventLog{}
    now := s.now()
    g := &session{
        id:      newGameID(),
        ctl:     domain.NewController(domain.NewOpponent(domain.O, rng), events),
        log:     events,
        created: now,
        updated: now,
    }
    s.games[g.id] = g
    s.log.Info("game created", "game", g.id)
    cp := g.snapshot()
    return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.games[id]
    if !ok {
        return nil, false
    }
    cp := g.snapshot()
    return &cp, true
}

// Join gives the human seat to playerID if it is free or already theirs.
// Anyone else watches and gets Empty.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.games[id]
    if !ok {
        return domain.Empty, nil, ErrNotFound
    }
    side := domain.Empty
    if g.owner == "" || g.owner == playerID {
        g.owner = playerID
        side = g.ctl.HumanSymbol()
    }
    g.updated = s.now()
    cp := g.snapshot()
    return side, &cp, nil
}

// Play applies the human's click at row r, column c and the opponent's reply.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
    return s.command(id, playerID, "play", func(ctl *domain.Controller) error {
        return ctl.Click(r, c)
    })
}

// Reset clears the board without changing level.
func (s *Service) Reset(id, playerID string) (*GameState, error) {
    return s.command(id, playerID, "reset", func(ctl *domain.Controller) error {
        return ctl.Reset()
    })
}

// Restart sends the game back to level 1.
func (s *Service) Restart(id, playerID string) (*GameState, error) {
    return s.command(id, playerID, "restart", func(ctl *domain.Controller) error {
        ctl.Restart()
        return nil
    })
}

// command runs fn against the seated player's controller, then broadcasts
// whatever events it produced.
func (s *Service) command(id, playerID, name string, fn func(*domain.Controller) error) (*GameState, error) {
    s.mu.Lock()
    g, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    if g.owner == "" || g.owner != playerID {
        s.mu.Unlock()
        return nil, ErrNotAPlayer
    }
    err := fn(g.ctl)
    events := g.log.drain()
    if len(events) == 0 {
        cp := g.snapshot()
        s.mu.Unlock()
        if err != nil {
            return nil, err
        }
        return &cp, nil
    }
    g.updated = s.now()
    cp := g.snapshot()
    dropped := s.broadcastLocked(id, Update{State: cp, Events: events})
    s.mu.Unlock()

    s.logEvents(id, name, events)
    if dropped > 0 {
        s.log.Warn("dropped slow subscribers", "game", id, "count", dropped)
    }
    if err != nil {
        s.log.Error("command failed after applying events", "game", id, "command", name, "err", err)
        return nil, err
    }
    return &cp, nil
}

func (s *Service) logEvents(id, command string, events []proto.Event) {
    for _, ev := range events {
        switch ev.Type {
        case proto.TypeCellFilled:
            s.log.Debug("cell filled", "game", id, "row", *ev.Row, "col", *ev.Col, "symbol", ev.Symbol)
        case proto.TypeRoundOver:
            s.log.Info("round over", "game", id, "outcome", ev.Outcome, "winner", ev.Symbol)
        case proto.TypeLevelAdvanced:
            s.log.Info("level started", "game", id, "level", ev.Level, "tier", ev.Tier, "command", command)
        case proto.TypeGameComplete:
            s.log.Info("game complete", "game", id, "rounds", len(ev.Rounds))
        case proto.TypeBoardReset:
            s.log.Debug("board reset", "game", id)
        }
    }
}

// broadcastLocked fans an update out without blocking; slow subscribers are
// closed and dropped. Sends and closes both happen under s.mu.
func (s *Service) broadcastLocked(id string, u Update) int {
    set := s.subs[id]
    dropped := 0
    for sub := range set {
        select {
        case sub.ch <- u:
        default:
            sub.close()
            delete(set, sub)
            dropped++
        }
    }
    return dropped
}

// Subscribe registers a subscriber for a game. The channel closes when ctx
// ends, when the subscriber falls behind, or when the game is pruned.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Update, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok {
        return nil, nil, ErrNotFound
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan Update, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            defer s.mu.Unlock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
                if len(set) == 0 {
                    delete(s.subs, id)
                }
            }
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub, nil
}

// Prune removes games idle for longer than maxIdle and closes their
// subscribers. It returns the number of games removed.
func (s *Service) Prune(maxIdle time.Duration) int {
    cutoff := s.now().Add(-maxIdle)
    s.mu.Lock()
    var removed []string
    for id, g := range s.games {
        if !g.updated.Before(cutoff) {
            continue
        }
        delete(s.games, id)
        for sub := range s.subs[id] {
            sub.close()
        }
        delete(s.subs, id)
        removed = append(removed, id)
    }
    s.mu.Unlock()
    for _, id := range removed {
        s.log.Info("game pruned", "game", id)
    }
    return len(removed)
}
