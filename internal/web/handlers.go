package web

import (
    "bufio"
    "bytes"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/tictactoe-solver/internal/app"
    "github.com/jaminalder/tictactoe-solver/internal/domain"
)

type handlers struct {
    svc *app.Service
    tpl *templates
}

func status(g domain.Game) string {
    if g.Over {
        return g.Outcome()
    }
    return g.Turn.String() + " to move"
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, boardData{ID: gs.ID, Cells: gs.Game.Board, Status: status(gs.Game), Error: errMsg})
}

func writeHTML(w http.ResponseWriter, b []byte) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    writeHTML(w, renderTemplate(h.tpl.index, nil))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    _, _ = w.Write([]byte(`{"ok":true}`))
}

func parseSide(s string) (domain.Cell, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "", "none":
        return domain.Empty, nil
    case "x":
        return domain.X, nil
    case "o":
        return domain.O, nil
    default:
        return domain.Empty, app.ErrBadSide
    }
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    side, err := parseSide(r.Form.Get("computer"))
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }
    gs, err := h.svc.CreateGame(r.Context(), side)
    if err != nil {
        log.Error().Err(err).Msg("create game")
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    // ensure cookie and auto-claim seat
    pid := ensurePlayerCookie(w, r)
    _, _, _ = h.svc.Join(id, pid)

    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    data := struct {
        ID    string
        Board boardData
    }{ID: gs.ID, Board: boardData{ID: gs.ID, Cells: gs.Game.Board, Status: status(gs.Game)}}
    writeHTML(w, renderTemplate(h.tpl.game, data))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    _, gs, err := h.svc.Join(id, pid)
    if err != nil || gs == nil {
        http.NotFound(w, r)
        return
    }
    writeHTML(w, h.renderBoard(*gs, ""))
}

// cellFromForm reads either a coordinate ("cell=b2") or row/column indices.
func cellFromForm(r *http.Request) (int, int, error) {
    if s := r.Form.Get("cell"); s != "" {
        i, err := domain.ParseCoord(s)
        if err != nil {
            return 0, 0, err
        }
        return i / 3, i % 3, nil
    }
    ri, err := strconv.Atoi(r.Form.Get("r"))
    if err != nil {
        return 0, 0, domain.ErrBadCoord
    }
    ci, err := strconv.Atoi(r.Form.Get("c"))
    if err != nil {
        return 0, 0, domain.ErrBadCoord
    }
    return ri, ci, nil
}

func errorMessage(err error) string {
    switch {
    case errors.Is(err, app.ErrNotYourTurn):
        return "Not your turn"
    case errors.Is(err, app.ErrNotAPlayer):
        return "You are a spectator"
    case errors.Is(err, domain.ErrOccupied):
        return "Cell is occupied"
    case errors.Is(err, domain.ErrOutOfBounds):
        return "Out of bounds"
    case errors.Is(err, domain.ErrBadCoord):
        return "Unreadable coordinate"
    case errors.Is(err, domain.ErrGameOver):
        return "Game is over"
    case errors.Is(err, app.ErrComputerMove):
        return "Computer could not move, try again"
    default:
        return "Invalid move"
    }
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    _ = r.ParseForm()
    var gs *app.GameState
    ri, ci, err := cellFromForm(r)
    if err == nil {
        gs, err = h.svc.Play(r.Context(), id, pid, ri, ci)
    }
    var errMsg string
    if err != nil {
        if g, ok := h.svc.Get(id); ok {
            gs = g
        }
        errMsg = errorMessage(err)
    }
    if gs == nil {
        http.NotFound(w, r)
        return
    }
    writeHTML(w, h.renderBoard(*gs, errMsg))
}

type analysisMove struct {
    Cell     string `json:"cell"`
    Index    int    `json:"index"`
    Outcome  string `json:"outcome"`
    Distance int    `json:"distance"`
    Value    int    `json:"value"`
    Text     string `json:"text"`
}

type analysisResponse struct {
    ID     string         `json:"id"`
    Turn   string         `json:"turn,omitempty"`
    Over   bool           `json:"over"`
    Result string         `json:"result,omitempty"`
    Moves  []analysisMove `json:"moves"`
}

func (h *handlers) analysis(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    moves, err := h.svc.Analysis(r.Context(), id)
    if err != nil {
        log.Error().Err(err).Str("game", id).Msg("analysis")
        http.Error(w, "analysis failed", http.StatusInternalServerError)
        return
    }
    resp := analysisResponse{ID: id, Over: gs.Game.Over, Result: gs.Game.Outcome(), Moves: make([]analysisMove, 0, len(moves))}
    if !gs.Game.Over {
        resp.Turn = gs.Game.Turn.String()
    }
    for _, m := range moves {
        resp.Moves = append(resp.Moves, analysisMove{
            Cell:     m.Coord(),
            Index:    m.Index,
            Outcome:  m.Score.Outcome.String(),
            Distance: m.Score.Distance,
            Value:    m.Score.Value(),
            Text:     m.Score.Text(gs.Game.Turn),
        })
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(resp)
}

var heartbeatInterval = 15 * time.Second

// writeEvent frames b as one SSE event, one data line per input line.
func writeEvent(w io.Writer, name string, b []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", name)
    sc := bufio.NewScanner(bytes.NewReader(b))
    for sc.Scan() {
        _, _ = fmt.Fprintf(w, "data: %s\n", sc.Text())
    }
    _, _ = io.WriteString(w, "\n")
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, _ := h.svc.Subscribe(ctx, id)
    ticker := time.NewTicker(heartbeatInterval)
    defer ticker.Stop()
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case b, ok := <-ch:
            if !ok {
                return
            }
            writeEvent(w, "board", b)
            flusher.Flush()
        }
    }
}
