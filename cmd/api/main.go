// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/infrastructure/database/gormdb"
	"github.com/Kyac99/finance-gestion-app/internal/infrastructure/database/redis"
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"driver":      cfg.Database.Driver,
	}).Info("Starting application")

	// Connect to database
	db, err := gormdb.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := gormdb.Close(db); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	// Connect to Redis when token revocation and rate limiting are wanted
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewConnection(context.Background(), cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
	} else {
		log.Warn("Redis disabled: logout revocation and rate limiting are off")
	}

	// Run database migrations
	migration := gormdb.NewMigration(db, log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	migration.CreateIndexes()

	server := http.NewServer(cfg, db, redisClient, log)

	if err := migration.SeedInitialData(context.Background(), server.Services().Users, cfg.AdminSeed); err != nil {
		log.WithError(err).Fatal("Data seeding failed")
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
