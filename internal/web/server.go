package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/tictactoe-solver/internal/app"
)

// NewServer wires routes and returns an http.Handler. It also installs
// the board fragment as the service's broadcast renderer.
func NewServer(s *app.Service) http.Handler {
    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(chimw.RealIP)
    r.Use(accessLog)
    r.Use(chimw.Recoverer)

    h := &handlers{svc: s, tpl: loadTemplates()}
    s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

    r.Get("/", h.index)
    r.Get("/health", h.health)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/join", h.join)
        r.Post("/play", h.play)
        r.Get("/analysis", h.analysis)
        r.Get("/events", h.events)
    })
    return r
}

func accessLog(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
        start := time.Now()
        defer func() {
            log.Debug().
                Str("request_id", chimw.GetReqID(r.Context())).
                Str("method", r.Method).
                Str("path", r.URL.Path).
                Int("status", ww.Status()).
                Dur("elapsed", time.Since(start)).
                Msg("http")
        }()
        next.ServeHTTP(ww, r)
    })
}
