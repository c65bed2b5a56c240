package domain

import "errors"

// Cell represents a board cell state.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

// String renders the cell as shown on the board.
func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return ""
    }
}

// Other returns the opposing symbol. Empty has no opponent.
func (c Cell) Other() Cell {
    switch c {
    case X:
        return O
    case O:
        return X
    default:
        return Empty
    }
}

// Size is the width and height of the board.
const Size = 3

// Board is a fixed 3x3 board stored row-major.
// It is a value type: assigning a Board copies every cell.
type Board [Size * Size]Cell

// Move addresses one cell.
type Move struct {
    Row int
    Col int
}

// Index returns the row-major offset of the move.
func (m Move) Index() int { return m.Row*Size + m.Col }

// Errors returned by board operations.
var (
    ErrOutOfBounds   = errors.New("out of bounds")
    ErrOccupied      = errors.New("cell occupied")
    ErrInvalidSymbol = errors.New("invalid symbol")
)

func inBounds(r, c int) bool {
    return r >= 0 && r < Size && c >= 0 && c < Size
}

// Reset clears every cell.
func (b *Board) Reset() {
    *b = Board{}
}

// Place puts symbol s at row r, column c (0..2). The cell must be empty.
func (b *Board) Place(r, c int, s Cell) error {
    if !inBounds(r, c) {
        return ErrOutOfBounds
    }
    if s != X && s != O {
        return ErrInvalidSymbol
    }
    idx := r*Size + c
    if b[idx] != Empty {
        return ErrOccupied
    }
    b[idx] = s
    return nil
}

// At returns the cell at row r, column c. Out of range reads are Empty.
func (b Board) At(r, c int) Cell {
    if !inBounds(r, c) {
        return Empty
    }
    return b[r*Size+c]
}

// IsEmpty reports whether the cell at row r, column c is free.
func (b Board) IsEmpty(r, c int) bool {
    return inBounds(r, c) && b[r*Size+c] == Empty
}

// IsFull reports whether no empty cell remains.
func (b Board) IsFull() bool {
    for _, c := range b {
        if c == Empty {
            return false
        }
    }
    return true
}

// Filled counts the occupied cells.
func (b Board) Filled() int {
    n := 0
    for _, c := range b {
        if c != Empty {
            n++
        }
    }
    return n
}

// EmptyCells lists the free cells in row-major order.
func (b Board) EmptyCells() []Move {
    out := make([]Move, 0, len(b))
    for i, c := range b {
        if c == Empty {
            out = append(out, Move{Row: i / Size, Col: i % Size})
        }
    }
    return out
}
