package app

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/tictactoe-solver/internal/domain"
    "github.com/jaminalder/tictactoe-solver/internal/engine"
    "github.com/jaminalder/tictactoe-solver/internal/player"
)

// ComputerID occupies the seat played by the engine.
const ComputerID = "computer"

// Errors exposed by the service layer. ErrComputerMove wraps a failed
// engine reply, which is retried by the next Get or Play.
var (
    ErrNotFound     = errors.New("game not found")
    ErrNotYourTurn  = errors.New("not your turn")
    ErrNotAPlayer   = errors.New("not a player")
    ErrBadSide      = errors.New("computer side must be X, O or empty")
    ErrComputerMove = errors.New("computer move failed")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
    ID       string
    Game     domain.Game
    X        string
    O        string
    Computer domain.Cell
    // Last is the most recently played cell, or -1.
    Last    int
    Created time.Time
    Updated time.Time

    thinking bool
}

type subscriber struct {
    mu     sync.Mutex
    ch     chan []byte
    closed bool
}

func (s *subscriber) close() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if !s.closed {
        s.closed = true
        close(s.ch)
    }
}

// offer reports false only when the subscriber is open but not keeping up.
func (s *subscriber) offer(b []byte) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return true
    }
    select {
    case s.ch <- b:
        return true
    default:
        return false
    }
}

// Service manages games and subscribers.
type Service struct {
    mu     sync.Mutex
    games  map[string]*GameState
    subs   map[string]map[*subscriber]struct{}
    render func(GameState) []byte
    ai     *player.Computer
    search engine.Searcher
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService() *Service { return NewServiceWithRenderer(nil) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte) *Service {
    if renderer == nil {
        renderer = func(gs GameState) []byte { return nil }
    }
    return &Service{
        games:  make(map[string]*GameState),
        subs:   make(map[string]map[*subscriber]struct{}),
        render: renderer,
        ai:     player.NewComputer(player.DefaultStrength),
        search: engine.SearchContext,
    }
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(gs GameState) []byte { return nil }
        return
    }
    s.render = renderer
}

// SetComputer replaces the move selection policy.
func (s *Service) SetComputer(c *player.Computer) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.ai = c
}

// SetSearcher replaces the search used for computer moves and analysis.
func (s *Service) SetSearcher(fn engine.Searcher) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if fn == nil {
        fn = engine.SearchContext
    }
    s.search = fn
}

// CreateGame creates and registers a new game. computer is the side the
// engine plays, or Empty for two humans. When the engine is X it opens.
func (s *Service) CreateGame(ctx context.Context, computer domain.Cell) (*GameState, error) {
    if computer > domain.O {
        return nil, ErrBadSide
    }
    now := time.Now()
    gs := &GameState{ID: uuid.NewString(), Game: domain.New(), Computer: computer, Last: -1, Created: now, Updated: now}
    switch computer {
    case domain.X:
        gs.X = ComputerID
    case domain.O:
        gs.O = ComputerID
    }
    // gs is not registered yet, so the opening is searched without s.mu.
    if gs.enginesTurn() {
        m, err := s.engineMove(ctx, gs.Game.Board)
        if err != nil {
            return nil, err
        }
        if err := gs.apply(m); err != nil {
            return nil, err
        }
    }
    s.mu.Lock()
    s.games[gs.ID] = gs
    cp := *gs
    s.mu.Unlock()
    log.Info().Str("game", gs.ID).Str("computer", sideName(computer)).Msg("game created")
    return &cp, nil
}

// Get returns a copy of the game state if present. A computer move left
// pending by an earlier failure is played first.
func (s *Service) Get(id string) (*GameState, bool) {
    if err := s.reply(context.Background(), id); err != nil {
        log.Warn().Err(err).Str("game", id).Msg("computer move failed")
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    gs, ok := s.games[id]
    if !ok {
        return nil, false
    }
    cp := *gs
    return &cp, true
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
    if playerID == ComputerID {
        return domain.Empty, nil, ErrNotAPlayer
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    gs, ok := s.games[id]
    if !ok {
        return domain.Empty, nil, ErrNotFound
    }
    side := domain.Empty
    if gs.X == "" || gs.X == playerID {
        gs.X = playerID
        side = domain.X
    } else if gs.O == "" || gs.O == playerID {
        gs.O = playerID
        side = domain.O
    }
    gs.Updated = time.Now()
    cp := *gs
    return side, &cp, nil
}

// Play validates seat and turn, applies a move and the engine's reply,
// updates timestamps, and broadcasts. If the reply fails the human move
// stands, the error wraps ErrComputerMove, and the reply is retried by
// the next Get or Play.
func (s *Service) Play(ctx context.Context, id, playerID string, r, c int) (*GameState, error) {
    if playerID == ComputerID {
        return nil, ErrNotAPlayer
    }
    if err := s.reply(ctx, id); err != nil {
        return nil, err
    }
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    // Validate player is seated
    var seat domain.Cell
    if gs.X == playerID {
        seat = domain.X
    } else if gs.O == playerID {
        seat = domain.O
    } else {
        s.mu.Unlock()
        return nil, ErrNotAPlayer
    }
    if gs.Game.Over {
        s.mu.Unlock()
        return nil, domain.ErrGameOver
    }
    if seat != gs.Game.Turn {
        s.mu.Unlock()
        return nil, ErrNotYourTurn
    }
    if err := gs.Game.Play(r, c); err != nil {
        s.mu.Unlock()
        return nil, err
    }
    gs.Last = r*3 + c
    gs.Updated = time.Now()
    if !gs.enginesTurn() {
        cp := *gs
        subs := s.copySubsLocked(id)
        payload := s.render(cp)
        s.mu.Unlock()
        s.fanOut(id, subs, payload)
        return &cp, nil
    }
    s.mu.Unlock()

    // reply broadcasts the board with both moves on it
    if err := s.reply(ctx, id); err != nil {
        s.broadcast(id)
        return nil, err
    }
    s.mu.Lock()
    cp := *s.games[id]
    s.mu.Unlock()
    return &cp, nil
}

// Analysis ranks the legal moves of the game's current position. A
// finished game has no moves.
func (s *Service) Analysis(ctx context.Context, id string) ([]domain.Move, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    pos := gs.Game.Board
    search := s.search
    s.mu.Unlock()
    if pos.Terminal() {
        return []domain.Move{}, nil
    }
    return search(ctx, pos)
}

func (gs *GameState) enginesTurn() bool {
    return gs.Computer != domain.Empty && !gs.Game.Over && gs.Game.Turn == gs.Computer
}

func (gs *GameState) apply(m domain.Move) error {
    if err := gs.Game.PlayIndex(m.Index); err != nil {
        return fmt.Errorf("%w: play %s: %w", ErrComputerMove, m.Coord(), err)
    }
    gs.Last = m.Index
    gs.Updated = time.Now()
    log.Debug().Str("game", gs.ID).Str("move", m.Coord()).Stringer("score", m.Score).Msg("computer moved")
    return nil
}

// engineMove searches p and picks the engine's move. It must be called
// without s.mu held. The search outlives ctx so that a client going away
// does not leave the engine's turn unplayed.
func (s *Service) engineMove(ctx context.Context, p domain.Position) (domain.Move, error) {
    s.mu.Lock()
    search, ai := s.search, s.ai
    s.mu.Unlock()
    moves, err := search(context.WithoutCancel(ctx), p)
    if err != nil {
        return domain.Move{}, fmt.Errorf("%w: search: %w", ErrComputerMove, err)
    }
    return ai.Choose(moves), nil
}

// reply plays the engine's move in game id if it is the engine's turn and
// no other caller is already searching it, then broadcasts. The move is
// dropped if the game changed during the search.
func (s *Service) reply(ctx context.Context, id string) error {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok || gs.thinking || !gs.enginesTurn() {
        s.mu.Unlock()
        return nil
    }
    gs.thinking = true
    board, played := gs.Game.Board, gs.Game.Moves
    s.mu.Unlock()

    m, err := s.engineMove(ctx, board)

    s.mu.Lock()
    gs.thinking = false
    if err != nil {
        s.mu.Unlock()
        return err
    }
    if gs.Game.Moves != played || !gs.enginesTurn() {
        s.mu.Unlock()
        return nil
    }
    if err := gs.apply(m); err != nil {
        s.mu.Unlock()
        return err
    }
    cp := *gs
    subs := s.copySubsLocked(id)
    payload := s.render(cp)
    s.mu.Unlock()
    s.fanOut(id, subs, payload)
    return nil
}

// broadcast sends the current state of game id to its subscribers.
func (s *Service) broadcast(id string) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return
    }
    subs := s.copySubsLocked(id)
    payload := s.render(*gs)
    s.mu.Unlock()
    s.fanOut(id, subs, payload)
}

func sideName(c domain.Cell) string {
    if c == domain.Empty {
        return "none"
    }
    return c.String()
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
    s.mu.Lock()
    defer s.mu.Unlock()
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub
}

// fanOut delivers payload without blocking; slow subscribers are closed
// and dropped.
func (s *Service) fanOut(id string, subs map[*subscriber]struct{}, payload []byte) {
    var toDrop []*subscriber
    for sub := range subs {
        if !sub.offer(payload) {
            sub.close()
            toDrop = append(toDrop, sub)
        }
    }
    if len(toDrop) == 0 {
        return
    }
    log.Debug().Str("game", id).Int("dropped", len(toDrop)).Msg("dropped slow subscribers")
    s.mu.Lock()
    for _, sub := range toDrop {
        if set, ok := s.subs[id]; ok {
            delete(set, sub)
        }
    }
    s.mu.Unlock()
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
    out := make(map[*subscriber]struct{})
    if set, ok := s.subs[id]; ok {
        for k := range set {
            out[k] = struct{}{}
        }
    }
    return out
}
