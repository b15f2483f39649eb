package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/todo-service/internal/config"
	"github.com/Dan9191/todo-service/internal/database"
	"github.com/Dan9191/todo-service/internal/handler"
	"github.com/Dan9191/todo-service/internal/reporter"
	"github.com/Dan9191/todo-service/internal/repository"
	"github.com/Dan9191/todo-service/internal/service"
	"github.com/Dan9191/todo-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	src, err := database.ParseURL(cfg.DatabaseURL, cfg.SQLitePath, cfg.DBDriver)
	if err != nil {
		logger.Fatalf("Invalid database configuration: %v", err)
	}
	db, err := database.Open(ctx, src)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Infof("Connected to %s database", src.Dialect)

	if cfg.AutoMigrate {
		applied, err := db.MigrateUp(ctx)
		if err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Infof("Applied %d migration(s)", applied)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, logger)
	h := handler.NewHandler(svc, logger)

	if cfg.StatsSchedule != "" {
		var mailer reporter.Mailer
		if cfg.MailEnabled() {
			mailer = email.NewSender(cfg, logger)
		}
		rep := reporter.New(svc, mailer, logger)
		if err := rep.Start(cfg.StatsSchedule); err != nil {
			logger.Fatalf("Failed to start stats reporter: %v", err)
		}
		defer func() { <-rep.Stop().Done() }()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
