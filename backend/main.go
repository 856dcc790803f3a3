package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/routes"
	"learnhub/backend/services"
	"learnhub/backend/utils"
	"learnhub/backend/vault"
)

// @title LearnHub API
// @version 1.0
// @description Courses, enrollment, progress tracking, discussions and file uploads.
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("Error initializing database", "error", err)
	}

	files, err := vault.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Error initializing file storage", "error", err)
	}

	app := routes.NewApp(cfg, logger)
	routes.SetupRoutes(app, cfg, db, services.New(db, logger), files, logger)

	go func() {
		logger.Info("Listening", "port", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Fatal("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	if err := files.Close(); err != nil {
		logger.Warn("Closing file storage failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
