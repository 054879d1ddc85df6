package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ting434252/lifebill/internal/config"
	"github.com/ting434252/lifebill/internal/database"
	"github.com/ting434252/lifebill/internal/persist"
	"github.com/ting434252/lifebill/internal/router"
	"github.com/ting434252/lifebill/internal/storage"
	"github.com/ting434252/lifebill/internal/util"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./config.yaml when present)")
	flag.Parse()

	// load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := util.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if err := util.RegisterValidations(); err != nil {
		return fmt.Errorf("register validations: %w", err)
	}

	backends, err := storage.Open(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(backends); err != nil {
			logger.Warn("close stores", "error", err)
		}
	}()
	if backends.Docs == nil {
		logger.Warn("cloud storage disabled, signed-in users cannot load their journal")
	}

	sessions := persist.NewManager(backends, logger)
	defer sessions.Close()
	idle := time.Duration(cfg.Server.SessionIdleMinutes) * time.Minute
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	go sessions.Run(ctx, time.Minute, idle)

	// setup router
	r := router.SetupRouter(cfg, db, sessions)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// 在途请求照常完成；SSE 不会自己结束，关闭时主动断开
	srv.RegisterOnShutdown(sessions.CloseStreams)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr,
			"local_driver", cfg.Storage.LocalDriver, "cloud_driver", cfg.Cloud.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
