package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bookcontrol/internal/api"
	"github.com/dgallion1/bookcontrol/internal/config"
	"github.com/dgallion1/bookcontrol/internal/importer"
	"github.com/dgallion1/bookcontrol/internal/ledger"
	"github.com/dgallion1/bookcontrol/internal/logging"
	"github.com/dgallion1/bookcontrol/internal/pathstore"
	"github.com/dgallion1/bookcontrol/internal/pipeline"
)

func main() {
	cfg := config.Load()

	log, logCloser := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	}, os.Stdout)
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	sink := pathstore.NewSink(ps)

	var led importer.Ledger
	var db *ledger.Ledger
	if cfg.LedgerPath != "" {
		var err error
		db, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			log.Error("failed to open ledger", "path", cfg.LedgerPath, "error", err)
			os.Exit(1)
		}
		led = db
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, sink, led, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, sink, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		ps.Close()
		if db != nil {
			db.Close()
		}
	}()

	log.Info("starting bookcontrol",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"segment_policy", cfg.SegmentPolicy.String(),
		"ledger", cfg.LedgerPath,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
