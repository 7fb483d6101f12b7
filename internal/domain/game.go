package domain

import "errors"

// Cell represents a board cell state. X always moves first.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

// Other returns the opposing mark. Empty stays Empty.
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

func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return " "
    }
}

// Game is the single mutable working copy owned by an interactive driver.
type Game struct {
    Board  Position
    Turn   Cell
    Winner Cell
    Over   bool
    Moves  int
}

// Errors returned by domain operations.
var (
    ErrOutOfBounds = errors.New("out of bounds")
    ErrOccupied    = errors.New("cell occupied")
    ErrGameOver    = errors.New("game over")
    ErrBadCoord    = errors.New("malformed coordinate")
    ErrBadPosition = errors.New("malformed position")
)

// New returns a new game with X to move.
func New() Game {
    return Game{Turn: X}
}

// FromPosition returns a game continuing from p.
func FromPosition(p Position) Game {
    g := Game{Board: p, Moves: 9 - len(p.Open())}
    g.sync()
    return g
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
    if r < 0 || r > 2 || c < 0 || c > 2 {
        if g.Over {
            return ErrGameOver
        }
        return ErrOutOfBounds
    }
    return g.PlayIndex(r*3 + c)
}

// PlayIndex plays the current turn at cell i (0..8).
func (g *Game) PlayIndex(i int) error {
    next, err := g.Board.Place(i)
    if err != nil {
        return err
    }
    g.Board = next
    g.Moves++
    g.sync()
    return nil
}

// Outcome describes a finished game, or returns "" while it is running.
func (g Game) Outcome() string {
    switch {
    case !g.Over:
        return ""
    case g.Winner != Empty:
        return g.Winner.String() + " wins."
    default:
        return "The game is a draw."
    }
}

func (g *Game) sync() {
    g.Winner = g.Board.Winner()
    g.Over = g.Board.Terminal()
    if g.Over {
        g.Turn = Empty
        return
    }
    g.Turn = g.Board.Turn()
}
