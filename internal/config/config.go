package config

import (
    "os"
    "strconv"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog"

    "github.com/jaminalder/tictactoe-solver/internal/player"
)

// Config holds process settings read from the environment.
type Config struct {
    Port     string
    LogLevel zerolog.Level
    // Strength is the probability the computer plays its best move.
    Strength float64
    // Parallel fans the top-level search out across goroutines.
    Parallel bool
}

// Load reads an optional .env file and then the environment.
func Load() Config {
    _ = godotenv.Load()
    return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup func, applying defaults for
// missing or unparsable values.
func FromEnv(getenv func(string) string) Config {
    cfg := Config{
        Port:     "8080",
        LogLevel: zerolog.InfoLevel,
        Strength: player.DefaultStrength,
    }
    if v := getenv("PORT"); v != "" {
        cfg.Port = v
    }
    if v := getenv("LOG_LEVEL"); v != "" {
        if lvl, err := zerolog.ParseLevel(v); err == nil {
            cfg.LogLevel = lvl
        }
    }
    if f, err := strconv.ParseFloat(getenv("AI_STRENGTH"), 64); err == nil && f >= 0 && f <= 1 {
        cfg.Strength = f
    }
    if b, err := strconv.ParseBool(getenv("AI_PARALLEL")); err == nil {
        cfg.Parallel = b
    }
    return cfg
}
