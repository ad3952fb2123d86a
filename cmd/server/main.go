package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/motorsig/internal/api"
	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/notify"
	"github.com/dgallion1/motorsig/internal/ocr/provider"
	"github.com/dgallion1/motorsig/internal/parser"
	"github.com/dgallion1/motorsig/internal/pipeline"
)

func main() {
	cfg := config.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	rec, err := provider.New(ctx, cfg)
	if err != nil {
		log.Error("ocr provider", "provider", cfg.OCRProvider, "error", err)
		os.Exit(1)
	}
	var recognizer parser.Recognizer
	if rec != nil {
		recognizer = rec
	}
	callback := notify.NewClient(cfg.CallbackURL, cfg.CallbackToken)
	var notifier pipeline.Notifier
	if callback != nil {
		notifier = callback
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, recognizer, notifier, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if rec != nil {
			rec.Close()
		}
		callback.Close()
	}()

	log.Info("starting motorsig", "port", cfg.Port, "ocr", cfg.OCRProvider, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
