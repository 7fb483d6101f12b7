// Package engine evaluates tic-tac-toe positions under perfect play.
//
// The whole game tree is walked on every call. There is no pruning or
// transposition table: at most 9! move sequences exist and most end early.
package engine

import (
    "context"
    "sort"

    "golang.org/x/sync/errgroup"

    "github.com/jaminalder/tictactoe-solver/internal/domain"
)

// Negamax returns the perfect-play score of p for the side to move.
func Negamax(p domain.Position) domain.Score {
    if p.Terminal() {
        return p.Eval()
    }
    moves := p.Moves()
    if len(moves) == 0 {
        panic("engine: negamax on a position with no moves")
    }
    best := childScore(moves[0].Position)
    for _, m := range moves[1:] {
        if s := childScore(m.Position); best.Less(s) {
            best = s
        }
    }
    return best
}

// childScore scores a successor from the parent mover's point of view.
func childScore(child domain.Position) domain.Score {
    return Negamax(child).Increment().Negate()
}

// Search scores every legal move of p and ranks them best first. Moves
// with equal scores stay in ascending cell order.
func Search(p domain.Position) []domain.Move {
    succ := p.Moves()
    moves := make([]domain.Move, len(succ))
    for i, s := range succ {
        moves[i] = domain.Move{Index: s.Index, Score: childScore(s.Position)}
    }
    rank(moves)
    return moves
}

// Searcher ranks the legal moves of a position.
type Searcher func(context.Context, domain.Position) ([]domain.Move, error)

// SearchContext adapts Search to a Searcher. It never fails.
func SearchContext(_ context.Context, p domain.Position) ([]domain.Move, error) {
    return Search(p), nil
}

// SearchParallel is Search with one goroutine per top-level move.
func SearchParallel(ctx context.Context, p domain.Position) ([]domain.Move, error) {
    succ := p.Moves()
    moves := make([]domain.Move, len(succ))
    g, ctx := errgroup.WithContext(ctx)
    for i, s := range succ {
        i, s := i, s
        g.Go(func() error {
            if err := ctx.Err(); err != nil {
                return err
            }
            moves[i] = domain.Move{Index: s.Index, Score: childScore(s.Position)}
            return nil
        })
    }
    if err := g.Wait(); err != nil {
        return nil, err
    }
    rank(moves)
    return moves, nil
}

// Best returns the top-ranked move, or false if p is already decided.
func Best(p domain.Position) (domain.Move, bool) {
    if p.Terminal() {
        return domain.Move{}, false
    }
    return Search(p)[0], true
}

func rank(moves []domain.Move) {
    sort.SliceStable(moves, func(i, j int) bool {
        return moves[j].Score.Less(moves[i].Score)
    })
}
