package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/config"
	"github.com/zhouzirui/bookshelf/backend/internal/handler"
	"github.com/zhouzirui/bookshelf/backend/internal/logging"
	"github.com/zhouzirui/bookshelf/backend/internal/model/book"
	"github.com/zhouzirui/bookshelf/backend/internal/service/activity"
	"github.com/zhouzirui/bookshelf/backend/internal/service/feed"
	"github.com/zhouzirui/bookshelf/backend/internal/service/library"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; the process environment always applies.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	var seed []book.Book
	if cfg.Store.Seed {
		seed = book.Seed()
	}
	store := book.NewMemoryStore(seed)
	logger.Info("book store ready", zap.Int("books", store.Len()))

	hub := feed.NewHub(cfg.Feed.Buffer, logger)
	defer hub.Close()

	books := library.NewService(store, hub, logger)

	recorder, closeRecorder, err := newRecorder(cfg.Activity, logger)
	if err != nil {
		logger.Fatal("failed to initialise activity recorder", zap.Error(err))
	}
	defer closeRecorder()

	router := handler.NewRouter(logger, books, hub, recorder, cfg.Feed.Heartbeat)

	startServer(ctx, logger, cfg.Server, router, hub)
}

// newRecorder picks redis when configured, else the in-memory recorder.
func newRecorder(cfg config.ActivityConfig, logger *zap.Logger) (activity.Recorder, func(), error) {
	if cfg.UseRedis() {
		rec, err := activity.NewRedisRecorder(cfg.RedisURL, cfg.Limit, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("activity recorder using redis", zap.String("addr", cfg.RedisURL))
		return rec, func() {
			if err := rec.Close(); err != nil {
				logger.Warn("failed to close redis client", zap.Error(err))
			}
		}, nil
	}

	rec, err := activity.NewMemoryRecorder(cfg.Limit, cfg.MaxUsers)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("activity recorder using memory", zap.Int("max_users", cfg.MaxUsers))
	return rec, func() {}, nil
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler, hub *feed.Hub) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Streaming handlers only return once their subscription ends.
	srv.RegisterOnShutdown(hub.Close)

	logger.Info("bookshelf backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
