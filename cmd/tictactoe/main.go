package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/tictactoe-solver/internal/app"
    "github.com/jaminalder/tictactoe-solver/internal/cli"
    "github.com/jaminalder/tictactoe-solver/internal/config"
    "github.com/jaminalder/tictactoe-solver/internal/domain"
    "github.com/jaminalder/tictactoe-solver/internal/engine"
    "github.com/jaminalder/tictactoe-solver/internal/player"
    "github.com/jaminalder/tictactoe-solver/internal/web"
)

const usage = `usage: tictactoe <command> [flags]

commands:
  play      play against the engine in the terminal
  serve     run the web server
  analyze   rank the moves of a position, e.g. analyze "X X . . O O . . ."
`

func main() {
    cfg := config.Load()
    zerolog.SetGlobalLevel(cfg.LogLevel)
    log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

    if len(os.Args) < 2 {
        fmt.Fprint(os.Stderr, usage)
        os.Exit(2)
    }
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    var err error
    switch os.Args[1] {
    case "play":
        err = runPlay(ctx, cfg, os.Args[2:])
    case "serve":
        err = runServe(ctx, cfg, os.Args[2:])
    case "analyze":
        err = runAnalyze(ctx, cfg, os.Args[2:])
    default:
        fmt.Fprint(os.Stderr, usage)
        os.Exit(2)
    }
    if err != nil && !errors.Is(err, context.Canceled) {
        log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
    }
}

func searcher(parallel bool) engine.Searcher {
    if parallel {
        return engine.SearchParallel
    }
    return engine.SearchContext
}

func runPlay(ctx context.Context, cfg config.Config, args []string) error {
    fs := flag.NewFlagSet("play", flag.ExitOnError)
    strength := fs.Float64("strength", cfg.Strength, "probability the computer plays its best move")
    noColor := fs.Bool("no-color", false, "disable coloured output")
    _ = fs.Parse(args)

    s := cli.NewSession(os.Stdin, os.Stdout, cli.Options{
        Computer: player.NewComputer(*strength),
        Search:   searcher(cfg.Parallel),
        Color:    !*noColor,
        Log:      log.Logger,
    })
    return s.Run(ctx)
}

func runAnalyze(ctx context.Context, cfg config.Config, args []string) error {
    fs := flag.NewFlagSet("analyze", flag.ExitOnError)
    noColor := fs.Bool("no-color", false, "disable coloured output")
    _ = fs.Parse(args)

    p, err := domain.ParsePosition(strings.Join(fs.Args(), " "))
    if err != nil {
        return err
    }
    return cli.Analyze(ctx, os.Stdout, p, searcher(cfg.Parallel), !*noColor)
}

func runServe(ctx context.Context, cfg config.Config, args []string) error {
    fs := flag.NewFlagSet("serve", flag.ExitOnError)
    port := fs.String("port", cfg.Port, "listen port")
    strength := fs.Float64("strength", cfg.Strength, "probability the computer plays its best move")
    _ = fs.Parse(args)

    svc := app.NewService()
    svc.SetComputer(player.NewComputer(*strength))
    svc.SetSearcher(searcher(cfg.Parallel))

    srv := &http.Server{Addr: ":" + *port, Handler: web.NewServer(svc), ReadHeaderTimeout: 10 * time.Second}
    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = srv.Shutdown(shutdownCtx)
    }()
    log.Info().Str("port", *port).Float64("strength", *strength).Bool("parallel", cfg.Parallel).Msg("starting server")
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
        return err
    }
    return nil
}
