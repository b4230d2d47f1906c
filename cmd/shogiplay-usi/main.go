package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/shogiplay/internal/engine"
	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/storage"
	"github.com/hailam/shogiplay/internal/usi"
)

var configPath = flag.String("config", "", "path to YAML config file")

func main() {
	flag.Parse()

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		// A broken config file should not take the engine down in the
		// middle of a tournament. Run on defaults and say so.
		cfg = engine.DefaultConfig()
	}

	log := newLogger(cfg.LogLevel)
	if err != nil {
		log.Warn().Err(err).Msg("config load failed, using defaults")
	}

	weights := loadWeights(cfg.EvalFile, log)

	cache := openCache(cfg.CacheDir, log)
	if cache != nil {
		defer cache.Close()
	}

	eng := engine.NewEngine(cfg.HashMB, cfg.Threads, weights, log)

	log.Info().
		Int("hash_mb", cfg.HashMB).
		Int("threads", cfg.Threads).
		Msg("engine ready")

	margin := time.Duration(cfg.MoveMargin) * time.Millisecond
	usi.New(eng, cache, margin, log).Run()
}

// newLogger builds the stderr logger. Stdout belongs to the USI
// protocol and must stay clean.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

// loadWeights reads the evaluation file, falling back to the built-in
// weights when none is configured or the file cannot be read.
func loadWeights(path string, log zerolog.Logger) *eval.Weights {
	if path == "" {
		return eval.DefaultWeights()
	}
	w, err := eval.LoadWeights(path)
	if err != nil {
		log.Warn().Err(err).Str("eval_file", path).Msg("eval file load failed, using built-in weights")
		return eval.DefaultWeights()
	}
	log.Info().Str("eval_file", path).Msg("eval weights loaded")
	return w
}

// openCache opens the persistent analysis cache. The engine runs
// without it if the database cannot be opened.
func openCache(dir string, log zerolog.Logger) *storage.Storage {
	var (
		cache *storage.Storage
		err   error
	)
	if dir == "" {
		cache, err = storage.NewStorage()
	} else {
		cache, err = storage.Open(dir)
	}
	if err != nil {
		log.Warn().Err(err).Msg("analysis cache unavailable")
		return nil
	}
	return cache
}
