package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/inquest-engine/internal/config"
	"github.com/jwebster45206/inquest-engine/internal/logger"
	"github.com/jwebster45206/inquest-engine/internal/services/events"
	"github.com/jwebster45206/inquest-engine/internal/storage"
	"github.com/jwebster45206/inquest-engine/internal/worker"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Inquest Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"database", cfg.DatabasePath,
		"timezone", cfg.Location().String(),
		"sweep_hour", cfg.SweepHour)

	// Authored content: madness catalog and clue recipes
	content, err := storage.NewFileContent(cfg.ContentDir, log)
	if err != nil {
		log.Error("Failed to load content", "error", err, "dir", cfg.ContentDir)
		os.Exit(1)
	}

	characters, err := storage.OpenSQLite(cfg.DatabasePath, cfg.Limits(), log)
	if err != nil {
		log.Error("Failed to open character store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := characters.Close(); err != nil {
			log.Error("Error closing character store", "error", err)
		}
	}()

	client, err := storage.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisStore := storage.NewRedisStorage(client, cfg.PendingRollTTL, log)
	defer func() {
		if err := redisStore.Close(); err != nil {
			log.Error("Error closing Redis", "error", err)
		}
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer waitCancel()
	if err := redisStore.WaitForConnection(waitCtx); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established successfully")

	var roller dice.Roller
	if cfg.Seed != 0 {
		roller = dice.New(uint64(cfg.Seed))
	} else if roller, err = dice.NewRandom(); err != nil {
		log.Error("Failed to seed dice", "error", err)
		os.Exit(1)
	}

	keeper := survival.NewKeeper(characters, content, events.NewBroadcaster(client, log), roller, cfg.Limits(), log)

	w := worker.New(keeper, redisStore, cfg.Location(), cfg.SweepHour, log, os.Getenv("WORKER_ID"))

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	log.Info("Worker started, waiting for the daily sweep...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give the current sweep time to finish
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn("Worker did not stop in time")
	}

	log.Info("Worker exited")
}
