package player

import (
    "math/rand"
    "sync"
    "time"

    "github.com/jaminalder/tictactoe-solver/internal/domain"
)

// DefaultStrength is how often the computer plays the top-ranked move.
const DefaultStrength = 0.75

// Computer picks from an already ranked move list. With probability
// Strength it takes the best move, otherwise any move at random.
type Computer struct {
    Strength float64

    mu  sync.Mutex
    rng *rand.Rand
}

// NewComputer returns a computer seeded from the clock.
func NewComputer(strength float64) *Computer {
    return NewComputerWithRand(strength, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewComputerWithRand allows injecting a random source for tests.
func NewComputerWithRand(strength float64, rng *rand.Rand) *Computer {
    if strength < 0 {
        strength = 0
    }
    if strength > 1 {
        strength = 1
    }
    return &Computer{Strength: strength, rng: rng}
}

// Choose selects one of moves. moves must be non-empty and is not modified.
func (c *Computer) Choose(moves []domain.Move) domain.Move {
    c.mu.Lock()
    defer c.mu.Unlock()
    if c.Strength >= 1 || c.rng.Float64() < c.Strength {
        return moves[0]
    }
    return moves[c.rng.Intn(len(moves))]
}
