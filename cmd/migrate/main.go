package main

import (
	"errors"
	"log/slog"
	"os"

	"hotline-platform/internal/config"
	"hotline-platform/migrations"
	"hotline-platform/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const validArgsLen = 2

func main() {
	if len(os.Args) < validArgsLen {
		slog.Error("usage: migrate up | down")
		os.Exit(2)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env)

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Error("open embedded migrations failed", "err", err)
		os.Exit(1)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", src, cfg.PostgresURL())
	if err != nil {
		log.Error("migrator init failed", "err", err)
		os.Exit(1)
	}
	defer migrator.Close()

	switch cmd := os.Args[1]; cmd {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Steps(-1)
	default:
		log.Error("unknown command", "cmd", cmd)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	version, dirty, _ := migrator.Version()
	log.Info("migration complete", "version", version, "dirty", dirty)
}
