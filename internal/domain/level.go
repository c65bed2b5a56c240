package domain

// Level pairs a 1-based ordinal with the opponent tier played at it.
type Level struct {
    Number int
    Tier   Tier
}

// Levels is the fixed sequence every game walks through.
var Levels = [...]Level{
    {Number: 1, Tier: Easy},
    {Number: 2, Tier: Medium},
    {Number: 3, Tier: Hard},
}

// Advance returns the level after the zero-based index, or false once the
// sequence is exhausted.
func Advance(index int) (Level, bool) {
    next := index + 1
    if next < 0 || next >= len(Levels) {
        return Level{}, false
    }
    return Levels[next], true
}

// Progression tracks the active level.
type Progression struct {
    index int
}

// Current returns the active level.
func (p *Progression) Current() Level { return Levels[p.index] }

// Index returns the zero-based position of the active level.
func (p *Progression) Index() int { return p.index }

// Advance moves to the next level. It returns false and stays on the last
// level when none is left.
func (p *Progression) Advance() (Level, bool) {
    lvl, ok := Advance(p.index)
    if !ok {
        return Level{}, false
    }
    p.index++
    return lvl, true
}

// Rewind returns to the first level.
func (p *Progression) Rewind() { p.index = 0 }
