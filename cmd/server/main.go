package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ymatsu/evosync/internal/api"
	"github.com/ymatsu/evosync/internal/config"
	"github.com/ymatsu/evosync/internal/feed"
	"github.com/ymatsu/evosync/internal/logger"
	"github.com/ymatsu/evosync/internal/repo"
	"github.com/ymatsu/evosync/internal/store"
	"github.com/ymatsu/evosync/internal/syncer"
	"github.com/ymatsu/evosync/internal/translate"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer log.Sync()

	// Open SQLite.
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	// Initialize store.
	s, err := store.New(db)
	if err != nil {
		log.Fatal("init store", zap.Error(err))
	}

	// Build the sync pipeline.
	proposals := repo.NewProposalRepository(s, feed.NewClient(cfg.FeedURL, cfg.HTTPTimeout))
	markdowns := repo.NewMarkdownRepository(s,
		feed.NewContentClient(cfg.ContentBaseURL, cfg.PageBaseURL, cfg.HTTPTimeout))
	bookmarks := repo.NewBookmarkRepository(s)

	sy := syncer.New(proposals, markdowns, log, cfg.FetchConcurrency)
	defer sy.Close()

	// Warm the cache on startup; the API can trigger further cycles.
	go func() {
		if err := sy.Refresh(context.Background()); err != nil {
			log.Warn("initial sync failed", zap.Error(err))
		}
	}()

	// Start API server.
	srv := api.New(proposals, markdowns, bookmarks, sy, translate.Noop{}, log, cfg.CORSOrigin)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down")
		sy.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("evosync server listening", zap.String("port", cfg.Port))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}
