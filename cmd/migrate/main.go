package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Dan9191/todo-service/internal/config"
	"github.com/Dan9191/todo-service/internal/database"
	"github.com/sirupsen/logrus"
)

const usage = "usage: migrate up|down|version"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	src, err := database.ParseURL(cfg.DatabaseURL, cfg.SQLitePath, cfg.DBDriver)
	if err != nil {
		logger.Fatalf("Invalid database configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, src)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		applied, err := db.MigrateUp(ctx)
		if err != nil {
			logger.Fatalf("Migration failed: %v", err)
		}
		logger.Infof("Applied %d migration(s) on %s", applied, src.Dialect)
	case "down":
		m, err := db.MigrateDown(ctx)
		if errors.Is(err, database.ErrNoMigration) {
			logger.Info("Nothing to revert")
			return
		}
		if err != nil {
			logger.Fatalf("Rollback failed: %v", err)
		}
		logger.Infof("Reverted migration %d_%s on %s", m.Version, m.Name, src.Dialect)
	case "version":
		version, err := db.Version(ctx)
		if err != nil {
			logger.Fatalf("Failed to read version: %v", err)
		}
		fmt.Println(version)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
