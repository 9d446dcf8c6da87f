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

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/client"
	"github.com/sehyun/yt-translator-go/internal/config"
	"github.com/sehyun/yt-translator-go/internal/store"
	"github.com/sehyun/yt-translator-go/internal/util"
	"github.com/sehyun/yt-translator-go/internal/viewer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Viewer starting...",
		zap.String("backend", cfg.Viewer.BackendURL),
		zap.String("bridge", cfg.Viewer.BridgeAddr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := client.NewClient(cfg.Viewer.BackendURL, logger)

	// Durable preferences live in Redis; the translator tab ID only lasts
	// for this run.
	prefs, err := store.NewRedisStore(store.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Error("Failed to connect preference store", zap.Error(err))
		os.Exit(1)
	}
	defer prefs.Close()
	session := store.NewMemoryStore()

	tabs, err := viewer.NewChromeTabs(ctx, cfg.Viewer.CDPURL, cfg.Viewer.UserDataDir, logger)
	if err != nil {
		logger.Error("Failed to connect browser", zap.Error(err))
		os.Exit(1)
	}
	defer tabs.Close()

	tabManager := viewer.NewTabManager(tabs, session, cfg.Viewer.ViewerPageURL, logger)
	bridge := viewer.NewBridge(backend, tabManager, prefs, cfg.Viewer.RequestTimeout, logger)

	bridgeServer := &http.Server{
		Addr:    cfg.Viewer.BridgeAddr,
		Handler: bridge.Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	p := pool.New().WithErrors()
	p.Go(func() error {
		logger.Info("Bridge listening", zap.String("addr", cfg.Viewer.BridgeAddr))
		if err := bridgeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Wait()
	}()

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("Viewer error", zap.Error(err))
		}
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := bridgeServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
