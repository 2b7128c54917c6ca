package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omegatable/outreach/internal/api"
	"github.com/omegatable/outreach/internal/config"
	"github.com/omegatable/outreach/internal/documents"
	"github.com/omegatable/outreach/internal/engine"
	"github.com/omegatable/outreach/internal/ingest"
	"github.com/omegatable/outreach/internal/mailer"
	"github.com/omegatable/outreach/internal/pdf"
	"github.com/omegatable/outreach/internal/repository/postgres"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Database
	store, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	log.Println("[Server] database connected")

	// Redis progress counters (optional)
	var progress *engine.ProgressTracker
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		progress = engine.NewProgressTracker(rdb)
		log.Printf("[Server] redis progress tracking at %s", cfg.Redis.Addr)
	} else {
		log.Println("[Server] redis not configured, progress tracking disabled")
	}

	// Gmail dispatch
	gmail, err := mailer.NewGmailClient(cfg.Gmail)
	if err != nil {
		log.Fatalf("Failed to initialize Gmail client: %v", err)
	}

	// Gotenberg letters
	pdfClient := pdf.NewClient(cfg.PDF)

	// S3 letter archive (optional)
	var archive engine.DocumentArchiver
	if cfg.Documents.Enabled {
		s3Archive, err := documents.NewS3Archive(context.Background(), cfg.Documents)
		if err != nil {
			log.Fatalf("Failed to initialize document archive: %v", err)
		}
		archive = s3Archive
		log.Printf("[Server] archiving letters to s3://%s", cfg.Documents.S3Bucket)
	}

	runner := engine.NewRunner(engine.Deps{
		Store:    store,
		Mailer:   gmail,
		PDF:      pdfClient,
		Archive:  archive,
		Progress: progress,
	}, engine.RunnerConfig{
		PollInterval: time.Duration(cfg.Engine.PollIntervalSeconds) * time.Second,
		RetryBackoff: time.Duration(cfg.Engine.RetryBackoffSeconds) * time.Second,
		MaxAttempts:  cfg.Engine.MaxSendAttempts,
		Safety: engine.SafetyConfig{
			Enabled:       cfg.Engine.SafetyMode,
			TestRecipient: cfg.Engine.TestRecipient,
		},
	})

	if cfg.Engine.SafetyMode {
		log.Printf("[Server] SAFETY MODE ON, all mail redirected to %q", cfg.Engine.TestRecipient)
	}

	// A nil tracker stays out of the interface so the progress endpoint can
	// detect an unconfigured Redis.
	var progressReader api.ProgressReader
	if progress != nil {
		progressReader = progress
	}

	handlers := api.NewHandlers(store, runner, ingest.NewImporter(store), progressReader)
	router := api.SetupRoutes(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // lead uploads can be large
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[Server] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	log.Println("[Server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown error: %v", err)
	}

	// Campaign loops wind down after the HTTP server so in-flight jobs
	// finish their store writes.
	runner.Close()
	log.Println("[Server] stopped")
}
