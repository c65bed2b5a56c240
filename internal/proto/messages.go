package proto

import "github.com/jaminalder/tictactoe-levels/internal/domain"

// Event types pushed to shells.
const (
    TypeCellFilled    = "cell_filled"
    TypeRoundOver     = "round_over"
    TypeLevelAdvanced = "level_advanced"
    TypeGameComplete  = "game_complete"
    TypeBoardReset    = "board_reset"
    TypeUpdate        = "update"
)

// ---- Server -> Client ----

// Event is one controller notification.
type Event struct {
    Type    string  `json:"type"`
    Row     *int    `json:"row,omitempty"`     // cell_filled
    Col     *int    `json:"col,omitempty"`     // cell_filled
    Symbol  string  `json:"symbol,omitempty"`  // cell_filled, round_over (winner)
    Outcome string  `json:"outcome,omitempty"` // round_over: "win" | "draw"
    Level   int     `json:"level,omitempty"`   // level_advanced
    Tier    string  `json:"tier,omitempty"`    // level_advanced
    Rounds  []Round `json:"rounds,omitempty"`  // game_complete
}

// Round summarises a finished level.
type Round struct {
    Level   int    `json:"level"`
    Tier    string `json:"tier"`
    Winner  string `json:"winner,omitempty"`
    Outcome string `json:"outcome"`
}

// State is the board as seen by a shell.
type State struct {
    Board  [9]string `json:"board"`
    Level  int       `json:"level"`
    Tier   string    `json:"tier"`
    Phase  string    `json:"phase"`
    Turn   string    `json:"turn,omitempty"`
    Notice string    `json:"notice,omitempty"`
}

// Update is the message written after every accepted command.
type Update struct {
    Type   string  `json:"type"` // "update"
    GameID string  `json:"game_id"`
    State  State   `json:"state"`
    Events []Event `json:"events"`
}

func outcomeName(o domain.Outcome) string {
    if o.IsDraw() {
        return "draw"
    }
    return "win"
}

// CellFilled builds a cell_filled event.
func CellFilled(row, col int, s domain.Cell) Event {
    return Event{Type: TypeCellFilled, Row: &row, Col: &col, Symbol: s.String()}
}

// RoundOver builds a round_over event.
func RoundOver(o domain.Outcome) Event {
    return Event{Type: TypeRoundOver, Symbol: o.Winner.String(), Outcome: outcomeName(o)}
}

// LevelAdvanced builds a level_advanced event.
func LevelAdvanced(l domain.Level) Event {
    return Event{Type: TypeLevelAdvanced, Level: l.Number, Tier: l.Tier.String()}
}

// GameComplete builds a game_complete event.
func GameComplete(results []domain.RoundResult) Event {
    rounds := make([]Round, 0, len(results))
    for _, r := range results {
        rounds = append(rounds, Round{
            Level:   r.Level.Number,
            Tier:    r.Level.Tier.String(),
            Winner:  r.Outcome.Winner.String(),
            Outcome: outcomeName(r.Outcome),
        })
    }
    return Event{Type: TypeGameComplete, Rounds: rounds}
}

// BoardReset builds a board_reset event.
func BoardReset() Event {
    return Event{Type: TypeBoardReset}
}

// BoardCells renders a board as strings, row-major.
func BoardCells(b domain.Board) [9]string {
    var out [9]string
    for i, c := range b {
        out[i] = c.String()
    }
    return out
}
