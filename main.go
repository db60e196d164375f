package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chxlky/trello-pr-bridge/api"
	"github.com/chxlky/trello-pr-bridge/bridge"
	"github.com/chxlky/trello-pr-bridge/database"
	"github.com/chxlky/trello-pr-bridge/integrations"
	"github.com/chxlky/trello-pr-bridge/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(levelStr string) (*zap.Logger, zap.AtomicLevel) {
	if levelStr == "" {
		levelStr = "debug"
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	atom := zap.NewAtomicLevelAt(level)
	config := zap.Config{
		Level:            atom,
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewExample(), atom
	}
	return logger, atom
}

func main() {
	logger, atom := newLogger(strings.ToLower(os.Getenv("LOG_LEVEL")))
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Error loading configuration", zap.Error(err))
	}
	// config.toml may set a different level than the environment
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		atom.SetLevel(level)
	}
	zap.L().Info("Loaded board configuration", zap.Int("repositories", len(cfg.Boards)))

	db, err := database.Init(cfg.DatabasePath)
	if err != nil {
		zap.L().Fatal("Failed to initialise database", zap.Error(err))
	}
	sqlDB, _ := db.DB()

	syncer := bridge.NewSyncer(
		integrations.NewGitHubClient(cfg.GitHubToken, cfg.UserAgent, cfg.HTTPTimeout),
		integrations.NewTrelloClient(cfg.TrelloAPIURL, cfg.TrelloKey, cfg.TrelloToken, cfg.HTTPTimeout),
		cfg.CardWorkers,
	)

	gin.SetMode(gin.ReleaseMode)
	apiHandler := &api.Handler{
		Secret: []byte(cfg.WebhookSecret),
		Boards: cfg.Boards,
		Syncer: syncer,
		Store:  database.NewStore(db),
	}
	router := api.NewRouter(apiHandler, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	zap.L().Info("Starting server", zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once

	cleanup := func(reason string) {
		zap.L().Info("Shutdown initiated", zap.String("reason", reason))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		zap.L().Info("Shutting down HTTP server...")
		if err := srv.Shutdown(ctx); err != nil {
			zap.L().Error("Error shutting down server", zap.Error(err))
		} else {
			zap.L().Info("HTTP server shut down gracefully.")
		}

		if sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				zap.L().Error("Error closing database", zap.Error(err))
			} else {
				zap.L().Info("Database connection closed.")
			}
		}
		close(done)
	}

	go func() {
		sig := <-sigCh
		once.Do(func() {
			cleanup(sig.String())
		})

		// a second signal exits immediately
		go func() {
			<-sigCh
			zap.L().Info("Second interrupt signal received. Exiting immediately.")
			os.Exit(1)
		}()
	}()

	<-done
	zap.L().Info("Exiting...")
}
