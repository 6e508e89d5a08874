// Package main contains the entrypoint for the meal-log pipeline.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/burgerquest/bot/internal/config"
	"github.com/burgerquest/bot/internal/gemini"
	"github.com/burgerquest/bot/internal/logger"
	"github.com/burgerquest/bot/internal/pipeline"
	"github.com/burgerquest/bot/internal/scheduler"
	"github.com/burgerquest/bot/internal/store"
	"github.com/burgerquest/bot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, store, transport,
// classifier, pipeline) and either executes a single pass or schedules
// passes until interrupted. Returns an exit code.
func run(ctx context.Context) int {
	_ = godotenv.Load()

	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single batch pass and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	for _, dir := range []string{filepath.Dir(cfg.Store.Path), cfg.Store.ImageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("Failed to create directory", "dir", dir, "error", err)
			return 1
		}
	}

	st := store.Open(cfg.Store.Path, log)
	log.Info("Store opened", "path", cfg.Store.Path, "records", st.Len())

	tg, err := telegram.New(cfg.Telegram, cfg.Store.ImageDir, log)
	if err != nil {
		log.Error("Failed to initialize Telegram client", "error", err)
		return 1
	}

	gem, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	pipe := pipeline.New(log, tg, gem, st, cfg.Telegram.ChatID)

	if *once {
		if _, err := pipe.Run(ctx); err != nil {
			log.Error("Pass failed", "error", err)
			return 1
		}
		return 0
	}

	sched, err := scheduler.New(log, cfg.Scheduler.Interval, "meal-log-pass", func() {
		if _, err := pipe.Run(ctx); err != nil {
			log.Error("Pass failed", "error", err)
		}
	})
	if err != nil {
		log.Error("Failed to initialize scheduler", "error", err)
		return 1
	}

	sched.Start()
	log.Info("Running, waiting for shutdown signal", "interval", cfg.Scheduler.Interval)

	<-ctx.Done()
	log.Info("Shutting down")
	if err := sched.Shutdown(); err != nil {
		log.Error("Scheduler shutdown failed", "error", err)
		return 1
	}

	return 0
}
