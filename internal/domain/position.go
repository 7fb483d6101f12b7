package domain

import (
    "fmt"
    "strings"
    "unicode"
)

// Position is a fixed 3x3 board stored row-major. It is a value type:
// deriving a move copies it.
type Position [9]Cell

// Successor pairs an open cell with the position reached by playing it.
type Successor struct {
    Index    int
    Position Position
}

var lines = [8][3]int{
    // rows
    {0, 1, 2}, {3, 4, 5}, {6, 7, 8},
    // cols
    {0, 3, 6}, {1, 4, 7}, {2, 5, 8},
    // diags
    {0, 4, 8}, {2, 4, 6},
}

// Full reports whether no cell is empty.
func (p Position) Full() bool {
    for _, c := range p {
        if c == Empty {
            return false
        }
    }
    return true
}

// Winner returns the mark holding a complete line, or Empty.
func (p Position) Winner() Cell {
    for _, ln := range lines {
        a := p[ln[0]]
        if a != Empty && a == p[ln[1]] && a == p[ln[2]] {
            return a
        }
    }
    return Empty
}

// Terminal reports whether the game has ended at p.
func (p Position) Terminal() bool {
    return p.Winner() != Empty || p.Full()
}

// Open returns the empty cell indices in ascending order.
func (p Position) Open() []int {
    open := make([]int, 0, 9)
    for i, c := range p {
        if c == Empty {
            open = append(open, i)
        }
    }
    return open
}

// Turn returns the side to move. X moves on an odd number of open cells.
func (p Position) Turn() Cell {
    if len(p.Open())%2 == 0 {
        return O
    }
    return X
}

// Moves returns one successor per open cell, in Open order.
func (p Position) Moves() []Successor {
    open := p.Open()
    turn := p.Turn()
    moves := make([]Successor, 0, len(open))
    for _, i := range open {
        next := p
        next[i] = turn
        moves = append(moves, Successor{Index: i, Position: next})
    }
    return moves
}

// Eval is the static score of p relative to the side to move. Only
// meaningful on terminal positions.
func (p Position) Eval() Score {
    w := p.Winner()
    switch {
    case w == Empty:
        return DrawScore()
    case w == p.Turn():
        return Win(0)
    default:
        return Loss(0)
    }
}

// Place returns the position after the side to move plays cell i.
func (p Position) Place(i int) (Position, error) {
    if p.Terminal() {
        return p, ErrGameOver
    }
    if i < 0 || i >= len(p) {
        return p, ErrOutOfBounds
    }
    if p[i] != Empty {
        return p, ErrOccupied
    }
    next := p
    next[i] = p.Turn()
    return next, nil
}

// ParsePosition reads nine cells written as X, O or '.', ignoring
// whitespace and case. Any other non-space rune counts as empty.
func ParsePosition(s string) (Position, error) {
    var p Position
    n := 0
    for _, r := range s {
        if unicode.IsSpace(r) {
            continue
        }
        if n == len(p) {
            return Position{}, fmt.Errorf("%w: more than 9 cells in %q", ErrBadPosition, s)
        }
        switch unicode.ToUpper(r) {
        case 'X':
            p[n] = X
        case 'O':
            p[n] = O
        default:
            p[n] = Empty
        }
        n++
    }
    if n != len(p) {
        return Position{}, fmt.Errorf("%w: got %d cells, want 9", ErrBadPosition, n)
    }
    return p, nil
}

// MustParsePosition is like ParsePosition but panics on error.
func MustParsePosition(s string) Position {
    p, err := ParsePosition(s)
    if err != nil {
        panic(err)
    }
    return p
}

// String renders p as a labelled grid, rows a..c and columns 1..3.
func (p Position) String() string {
    var b strings.Builder
    b.WriteString("  ┌───┬───┬───┐\n")
    for r := 0; r < 3; r++ {
        fmt.Fprintf(&b, "%c │", rowLabel(r))
        for c := 0; c < 3; c++ {
            fmt.Fprintf(&b, " %s │", p[r*3+c])
        }
        b.WriteString("\n")
        if r < 2 {
            b.WriteString("  ├───┼───┼───┤\n")
        }
    }
    b.WriteString("  └───┴───┴───┘\n")
    b.WriteString("    1   2   3")
    return b.String()
}
