// Package cli runs tic-tac-toe against the engine in a terminal.
package cli

import (
    "bufio"
    "context"
    "errors"
    "fmt"
    "io"
    "strings"

    "github.com/fatih/color"
    "github.com/rs/zerolog"

    "github.com/jaminalder/tictactoe-solver/internal/domain"
    "github.com/jaminalder/tictactoe-solver/internal/engine"
    "github.com/jaminalder/tictactoe-solver/internal/player"
)

// Options configures a Session. Zero values pick sensible defaults.
type Options struct {
    Computer *player.Computer
    Search   engine.Searcher
    // Color enables ANSI colouring of the move list.
    Color bool
    Log   zerolog.Logger
}

// Session is one interactive game. It owns its working copy of the game.
type Session struct {
    in     *bufio.Scanner
    out    io.Writer
    opts   Options
    styles styles
}

type styles struct {
    win, loss *color.Color
}

func newStyles(enabled bool) styles {
    s := styles{win: color.New(color.FgGreen), loss: color.New(color.FgRed)}
    if enabled {
        s.win.EnableColor()
        s.loss.EnableColor()
    } else {
        s.win.DisableColor()
        s.loss.DisableColor()
    }
    return s
}

func (s styles) move(m domain.Move) string {
    switch m.Score.Outcome {
    case domain.Winning:
        return s.win.Sprint(m.Coord())
    case domain.Losing:
        return s.loss.Sprint(m.Coord())
    default:
        return m.Coord()
    }
}

// NewSession reads answers from in and writes the game to out.
func NewSession(in io.Reader, out io.Writer, opts Options) *Session {
    if opts.Computer == nil {
        opts.Computer = player.NewComputer(player.DefaultStrength)
    }
    if opts.Search == nil {
        opts.Search = engine.SearchContext
    }
    return &Session{in: bufio.NewScanner(in), out: out, opts: opts, styles: newStyles(opts.Color)}
}

func (s *Session) readLine() (string, error) {
    if s.in.Scan() {
        return s.in.Text(), nil
    }
    if err := s.in.Err(); err != nil {
        return "", err
    }
    return "", io.ErrUnexpectedEOF
}

// chooseSides asks who opens and returns the computer's mark.
func (s *Session) chooseSides() (domain.Cell, error) {
    for {
        fmt.Fprint(s.out, "Tic Tac Toe. Choose Player or Computer to go first: ")
        line, err := s.readLine()
        if err != nil {
            return domain.Empty, err
        }
        switch strings.ToLower(strings.TrimSpace(line)) {
        case "p", "player":
            return domain.O, nil
        case "c", "computer":
            return domain.X, nil
        }
        fmt.Fprintln(s.out, "Please answer player or computer.")
    }
}

// Run plays one game to completion. It returns io.ErrUnexpectedEOF if
// input ends first.
func (s *Session) Run(ctx context.Context) error {
    computer, err := s.chooseSides()
    if err != nil {
        return err
    }
    s.opts.Log.Debug().Stringer("computer", computer).Msg("session started")
    g := domain.New()
    for !g.Over {
        if err := ctx.Err(); err != nil {
            return err
        }
        if g.Turn == computer {
            if err := s.computerMove(ctx, &g); err != nil {
                return err
            }
            continue
        }
        if err := s.humanMove(ctx, &g); err != nil {
            return err
        }
    }
    fmt.Fprintln(s.out, g.Board)
    fmt.Fprintln(s.out, g.Outcome())
    s.opts.Log.Debug().Str("result", g.Outcome()).Int("moves", g.Moves).Msg("session finished")
    return nil
}

func (s *Session) computerMove(ctx context.Context, g *domain.Game) error {
    moves, err := s.opts.Search(ctx, g.Board)
    if err != nil {
        return fmt.Errorf("search: %w", err)
    }
    m := s.opts.Computer.Choose(moves)
    if err := g.PlayIndex(m.Index); err != nil {
        return fmt.Errorf("computer move %s: %w", m.Coord(), err)
    }
    s.opts.Log.Debug().Str("move", m.Coord()).Stringer("score", m.Score).Bool("best", m.Index == moves[0].Index).Msg("computer moved")
    fmt.Fprintf(s.out, "Computer plays %s.\n", m.Coord())
    return nil
}

func (s *Session) humanMove(ctx context.Context, g *domain.Game) error {
    moves, err := s.opts.Search(ctx, g.Board)
    if err != nil {
        return fmt.Errorf("search: %w", err)
    }
    s.printState(g.Board, moves)
    for {
        fmt.Fprint(s.out, "Choose a move from the list: ")
        line, err := s.readLine()
        if err != nil {
            return err
        }
        i, err := domain.ParseCoord(line)
        if err == nil {
            err = g.PlayIndex(i)
        }
        if err == nil {
            return nil
        }
        if !errors.Is(err, domain.ErrBadCoord) && !errors.Is(err, domain.ErrOutOfBounds) && !errors.Is(err, domain.ErrOccupied) {
            return err
        }
        fmt.Fprintf(s.out, "Invalid move: %v\n", err)
    }
}

func (s *Session) printState(p domain.Position, moves []domain.Move) {
    fmt.Fprintln(s.out, "   Tic Tac Toe")
    fmt.Fprintln(s.out, p)
    fmt.Fprintf(s.out, "\nEvaluation: %s\n", moves[0].Score.Text(p.Turn()))
    list := make([]string, len(moves))
    for i, m := range moves {
        list[i] = s.styles.move(m)
    }
    fmt.Fprintf(s.out, "Available moves: (%s)\n", strings.Join(list, ", "))
}

// Analyze writes the position and every legal move ranked best first.
func Analyze(ctx context.Context, w io.Writer, p domain.Position, search engine.Searcher, colored bool) error {
    if search == nil {
        search = engine.SearchContext
    }
    fmt.Fprintln(w, p)
    if p.Terminal() {
        fmt.Fprintln(w, domain.FromPosition(p).Outcome())
        return nil
    }
    moves, err := search(ctx, p)
    if err != nil {
        return fmt.Errorf("search: %w", err)
    }
    st := newStyles(colored)
    turn := p.Turn()
    fmt.Fprintf(w, "%s to move. Evaluation: %s\n", turn, moves[0].Score.Text(turn))
    for i, m := range moves {
        fmt.Fprintf(w, "%d. %s  %s\n", i+1, st.move(m), m.Score.Text(turn))
    }
    return nil
}
