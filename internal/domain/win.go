package domain

// Lines holds the 8 winning lines as row-major indices.
var Lines = [8][3]int{
    // rows
    {0, 1, 2}, {3, 4, 5}, {6, 7, 8},
    // cols
    {0, 3, 6}, {1, 4, 7}, {2, 5, 8},
    // diags
    {0, 4, 8}, {2, 4, 6},
}

// HasWon reports whether side fully occupies at least one line.
func HasWon(b Board, side Cell) bool {
    _, ok := WinningLine(b, side)
    return ok
}

// WinningLine returns the first line fully occupied by side.
func WinningLine(b Board, side Cell) ([3]int, bool) {
    if side == Empty {
        return [3]int{}, false
    }
    for _, ln := range Lines {
        if b[ln[0]] == side && b[ln[1]] == side && b[ln[2]] == side {
            return ln, true
        }
    }
    return [3]int{}, false
}
