package domain

import (
    "fmt"
    "strings"
)

// Outcome is the game-theoretic result carried by a Score.
type Outcome uint8

const (
    Draw Outcome = iota
    Winning
    Losing
)

func (o Outcome) String() string {
    switch o {
    case Winning:
        return "winning"
    case Losing:
        return "losing"
    default:
        return "draw"
    }
}

// scoreBase must exceed the longest possible mate distance (9 plies).
const scoreBase = 10

// Score is a side-to-move-relative evaluation. Distance counts plies to
// the decisive outcome and is always 0 for draws.
type Score struct {
    Outcome  Outcome
    Distance int
}

func DrawScore() Score { return Score{Outcome: Draw} }
func Win(distance int) Score { return Score{Outcome: Winning, Distance: distance} }
func Loss(distance int) Score { return Score{Outcome: Losing, Distance: distance} }

// Negate views the score from the opponent's side.
func (s Score) Negate() Score {
    switch s.Outcome {
    case Winning:
        return Loss(s.Distance)
    case Losing:
        return Win(s.Distance)
    default:
        return s
    }
}

// Increment pushes a decisive outcome one ply further away.
func (s Score) Increment() Score {
    if s.Outcome == Draw {
        return s
    }
    s.Distance++
    return s
}

// Value maps the score onto integers so that near wins rank above far
// wins, any win above a draw, and far losses above near losses.
func (s Score) Value() int {
    switch s.Outcome {
    case Winning:
        return scoreBase - s.Distance
    case Losing:
        return s.Distance - scoreBase
    default:
        return 0
    }
}

// Compare returns -1, 0 or +1 as s ranks below, level with or above t.
func (s Score) Compare(t Score) int {
    a, b := s.Value(), t.Value()
    switch {
    case a < b:
        return -1
    case a > b:
        return 1
    default:
        return 0
    }
}

func (s Score) Less(t Score) bool { return s.Value() < t.Value() }

// MovesToEnd is the distance expressed in the mover's own moves.
func (s Score) MovesToEnd() int {
    return s.Distance/2 + s.Distance%2
}

// Text renders the score from side's point of view, e.g. "X wins in 2 moves."
func (s Score) Text(side Cell) string {
    if s.Outcome == Draw {
        return "The game is a draw."
    }
    verb := "wins"
    if s.Outcome == Losing {
        verb = "loses"
    }
    plural := ""
    if s.Distance > 2 {
        plural = "s"
    }
    return fmt.Sprintf("%s %s in %d move%s.", strings.ToUpper(side.String()), verb, s.MovesToEnd(), plural)
}

func (s Score) String() string {
    if s.Outcome == Draw {
        return "draw"
    }
    return fmt.Sprintf("%s(%d)", s.Outcome, s.Distance)
}

// Move is a ranked candidate produced by the search.
type Move struct {
    Index int
    Score Score
}

// Coord returns the move's cell as a coordinate such as "b2".
func (m Move) Coord() string { return Coord(m.Index) }
