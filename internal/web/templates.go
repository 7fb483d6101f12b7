package web

import (
    "bytes"
    "html/template"
    "net/http"

    "github.com/google/uuid"

    "github.com/jaminalder/tictactoe-solver/internal/app"
    "github.com/jaminalder/tictactoe-solver/internal/domain"
)

type templates struct {
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "iter": func(n int) []int {
            a := make([]int, n)
            for i := range a {
                a[i] = i
            }
            return a
        },
        "cellSymbol": func(c domain.Cell) string {
            if c == domain.Empty {
                return ""
            }
            return c.String()
        },
        "coord": domain.Coord,
        "rowLabel": func(r int) string { return string(rune('a' + r)) },
        "add":      func(a, b int) int { return a + b },
        "mul":      func(a, b int) int { return a * b },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
    template.Must(base.New("board").Parse(boardTemplate))
    index := template.Must(base.Clone())
    template.Must(index.New("content").Parse(`<h1>Tic Tac Toe</h1>
<form action="/game" method="post">
  <label>Computer plays
    <select name="computer">
      <option value="o">O</option>
      <option value="x">X</option>
      <option value="">nobody</option>
    </select>
  </label>
  <button>Create</button>
</form>`))
    game := template.Must(base.Clone())
    template.Must(game.New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .Board}}</div>
</div>
<a href="/game/{{.ID}}/analysis">analysis</a>`))
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, data any) []byte {
    var buf bytes.Buffer
    _ = t.Execute(&buf, data)
    return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{.Status}}</div>
  <div class="row"><span></span>{{range $c := iter 3}}<span>{{add $c 1}}</span>{{end}}</div>
  {{range $r := iter 3}}
  <div class="row">
    <span>{{rowLabel $r}}</span>
    {{range $c := iter 3}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="cell" value="{{coord (add (mul $r 3) $c)}}">
        <button type="submit">{{cellSymbol (index $.Cells (add (mul $r 3) $c))}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

// boardData feeds the board fragment.
type boardData struct {
    ID     string
    Cells  domain.Position
    Status string
    Error  string
}

// Helper to set cookie. The engine's seat id is never accepted from a client.
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
    if c, err := r.Cookie("player_id"); err == nil && c.Value != "" && c.Value != app.ComputerID {
        return c.Value
    }
    v := uuid.NewString()
    http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
    return v
}
