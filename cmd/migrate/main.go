// Package main contains the operator entrypoint for the participants
// backfill, kept separate from the pipeline binary.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/burgerquest/bot/internal/config"
	"github.com/burgerquest/bot/internal/logger"
	"github.com/burgerquest/bot/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		log.Error("Store file not found", "path", cfg.Store.Path, "error", err)
		return 1
	}

	st := store.Open(cfg.Store.Path, log)
	migrated, err := st.MigrateParticipants()
	if err != nil {
		log.Error("Migration failed", "error", err)
		return 1
	}

	if migrated == 0 {
		log.Info("No entries needed migration")
		return 0
	}

	log.Info("Migrated entries", "count", migrated)
	return 0
}
