package domain

import (
    "errors"
    "fmt"
)

// Phase is the controller's position in the round lifecycle.
type Phase uint8

const (
    AwaitingMove Phase = iota
    RoundOver
    LevelAdvancing
    GameComplete
)

func (p Phase) String() string {
    switch p {
    case AwaitingMove:
        return "awaiting_move"
    case RoundOver:
        return "round_over"
    case LevelAdvancing:
        return "level_advancing"
    case GameComplete:
        return "game_complete"
    default:
        return "unknown"
    }
}

// PlayerKind tells the controller who chooses a seat's moves.
type PlayerKind uint8

const (
    Human PlayerKind = iota
    Computer
)

// Player is a seat at the board.
type Player struct {
    Kind   PlayerKind
    Symbol Cell
}

// Outcome is the result of a round. A zero Winner means a draw.
type Outcome struct {
    Winner Cell
}

// IsDraw reports whether nobody won.
func (o Outcome) IsDraw() bool { return o.Winner == Empty }

func (o Outcome) String() string {
    if o.IsDraw() {
        return "It's a draw!"
    }
    return fmt.Sprintf("Player %s wins!", o.Winner)
}

// RoundResult records how a level ended.
type RoundResult struct {
    Level   Level
    Outcome Outcome
}

// EventSink receives notifications from the controller. Calls happen
// synchronously, inside Click, Reset and Restart.
type EventSink interface {
    CellFilled(row, col int, symbol Cell)
    RoundOver(outcome Outcome)
    LevelAdvanced(level Level)
    GameComplete(results []RoundResult)
    BoardReset()
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) CellFilled(int, int, Cell) {}
func (NopSink) RoundOver(Outcome) {}
func (NopSink) LevelAdvanced(Level) {}
func (NopSink) GameComplete([]RoundResult) {}
func (NopSink) BoardReset() {}

// ErrGameComplete is returned once every level has been played.
var ErrGameComplete = errors.New("game complete")

const (
    humanSeat    = 0
    computerSeat = 1
)

// Controller runs a human against the scripted opponent through every level.
// It is not safe for concurrent use.
type Controller struct {
    board       Board
    players     [2]Player
    turn        int
    opponent    *Opponent
    progression Progression
    phase       Phase
    last        Outcome
    hasLast     bool
    results     []RoundResult
    sink        EventSink
}

// NewController starts a game at level 1 with the human to move.
// The human plays the symbol the opponent does not.
func NewController(opp *Opponent, sink EventSink) *Controller {
    if opp == nil {
        opp = NewOpponent(O, nil)
    }
    if sink == nil {
        sink = NopSink{}
    }
    return &Controller{
        players: [2]Player{
            humanSeat:    {Kind: Human, Symbol: opp.Symbol().Other()},
            computerSeat: {Kind: Computer, Symbol: opp.Symbol()},
        },
        turn:     humanSeat,
        opponent: opp,
        phase:    AwaitingMove,
        sink:     sink,
    }
}

// Board returns a copy of the current board.
func (c *Controller) Board() Board { return c.board }

// Level returns the active level.
func (c *Controller) Level() Level { return c.progression.Current() }

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Turn returns the symbol to move, or Empty once the game is complete.
func (c *Controller) Turn() Cell {
    if c.phase == GameComplete {
        return Empty
    }
    return c.players[c.turn].Symbol
}

// HumanSymbol returns the human's mark.
func (c *Controller) HumanSymbol() Cell { return c.players[humanSeat].Symbol }

// LastOutcome returns the most recent round outcome, if any round ended
// since the last reset.
func (c *Controller) LastOutcome() (Outcome, bool) { return c.last, c.hasLast }

// Results returns a copy of every finished round.
func (c *Controller) Results() []RoundResult {
    out := make([]RoundResult, len(c.results))
    copy(out, c.results)
    return out
}

// Click plays the human's move at row r, column col. A click on an occupied
// cell is ignored. When the computer is next it replies before Click returns.
func (c *Controller) Click(r, col int) error {
    if c.phase == GameComplete {
        return ErrGameComplete
    }
    if !inBounds(r, col) {
        return ErrOutOfBounds
    }
    if !c.board.IsEmpty(r, col) || c.players[c.turn].Kind != Human {
        return nil
    }
    return c.apply(Move{Row: r, Col: col})
}

func (c *Controller) apply(m Move) error {
    p := c.players[c.turn]
    if err := c.board.Place(m.Row, m.Col, p.Symbol); err != nil {
        return fmt.Errorf("place %s at %d,%d: %w", p.Symbol, m.Row, m.Col, err)
    }
    c.sink.CellFilled(m.Row, m.Col, p.Symbol)

    if HasWon(c.board, p.Symbol) {
        c.finishRound(Outcome{Winner: p.Symbol})
        return nil
    }
    if c.board.IsFull() {
        c.finishRound(Outcome{})
        return nil
    }

    c.turn = 1 - c.turn
    if c.players[c.turn].Kind != Computer {
        return nil
    }
    mv, err := c.opponent.SelectMove(c.board, c.progression.Current().Tier)
    if err != nil {
        // IsFull was checked above, so this is a broken invariant.
        return fmt.Errorf("opponent move: %w", err)
    }
    return c.apply(mv)
}

func (c *Controller) finishRound(o Outcome) {
    c.phase = RoundOver
    c.last, c.hasLast = o, true
    c.results = append(c.results, RoundResult{Level: c.progression.Current(), Outcome: o})
    c.sink.RoundOver(o)

    c.phase = LevelAdvancing
    lvl, ok := c.progression.Advance()
    if !ok {
        c.phase = GameComplete
        c.sink.GameComplete(c.Results())
        return
    }
    c.board.Reset()
    c.turn = humanSeat
    c.phase = AwaitingMove
    c.sink.LevelAdvanced(lvl)
}

// Reset clears the board without changing level. The human moves next.
func (c *Controller) Reset() error {
    if c.phase == GameComplete {
        return ErrGameComplete
    }
    c.board.Reset()
    c.turn = humanSeat
    c.phase = AwaitingMove
    c.hasLast = false
    c.sink.BoardReset()
    return nil
}

// Restart goes back to level 1 with an empty board and no history.
func (c *Controller) Restart() {
    c.progression.Rewind()
    c.board.Reset()
    c.turn = humanSeat
    c.phase = AwaitingMove
    c.last, c.hasLast = Outcome{}, false
    c.results = nil
    c.sink.LevelAdvanced(c.progression.Current())
}
