package domain

import (
    "errors"
    "math/rand/v2"
    "strings"
)

// Tier is the strength of the scripted opponent.
type Tier uint8

const (
    Easy Tier = iota
    Medium
    Hard
)

func (t Tier) String() string {
    switch t {
    case Easy:
        return "Easy"
    case Medium:
        return "Medium"
    case Hard:
        return "Hard"
    default:
        return "Unknown"
    }
}

// ParseTier accepts a tier name in any case.
func ParseTier(s string) (Tier, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "easy":
        return Easy, nil
    case "medium":
        return Medium, nil
    case "hard":
        return Hard, nil
    }
    return 0, ErrUnknownTier
}

var (
    ErrBoardFull   = errors.New("no empty cell")
    ErrUnknownTier = errors.New("unknown tier")
)

// Opponent picks moves for the computer player.
type Opponent struct {
    symbol Cell
    rng    *rand.Rand
}

// NewOpponent returns an opponent playing symbol and drawing random moves from rng.
func NewOpponent(symbol Cell, rng *rand.Rand) *Opponent {
    if rng == nil {
        rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
    }
    return &Opponent{symbol: symbol, rng: rng}
}

// Symbol is the mark the opponent plays.
func (o *Opponent) Symbol() Cell { return o.symbol }

// SelectMove chooses a cell for the opponent at the given tier.
// Easy plays randomly, Medium blocks then plays randomly, Hard wins, blocks,
// then plays randomly. b is never modified.
func (o *Opponent) SelectMove(b Board, t Tier) (Move, error) {
    if b.IsFull() {
        return Move{}, ErrBoardFull
    }
    switch t {
    case Easy:
    case Medium:
        if m, ok := FindWinningMove(b, o.symbol.Other()); ok {
            return m, nil
        }
    case Hard:
        if m, ok := FindWinningMove(b, o.symbol); ok {
            return m, nil
        }
        if m, ok := FindWinningMove(b, o.symbol.Other()); ok {
            return m, nil
        }
    default:
        return Move{}, ErrUnknownTier
    }
    return o.randomMove(b), nil
}

func (o *Opponent) randomMove(b Board) Move {
    cells := b.EmptyCells()
    return cells[o.rng.IntN(len(cells))]
}

// FindWinningMove returns the first empty cell, in row-major order, that
// would complete a line for side.
func FindWinningMove(b Board, side Cell) (Move, bool) {
    for _, m := range b.EmptyCells() {
        // b is a copy; trial placements never reach the caller.
        trial := b
        trial[m.Index()] = side
        if HasWon(trial, side) {
            return m, true
        }
    }
    return Move{}, false
}
