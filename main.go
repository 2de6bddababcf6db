package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskflow/config"
	"taskflow/database"
	"taskflow/handlers"
	"taskflow/repository"
	"taskflow/services"
)

func main() {
	// Load configuration
	cfg := config.GetConfig()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Revoked tokens go to Redis when configured, otherwise to the database
	var tokens repository.RevocationStore
	rdb, err := database.ConnectRedis(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		tokens = repository.NewRedisRevocationStore(rdb)
	}

	svc, err := services.New(cfg, database.DB, tokens)
	if err != nil {
		log.Fatalf("Failed to initialise services: %v", err)
	}

	app := handlers.NewApp(handlers.New(cfg, database.DB, svc), handlers.AppOptions{})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting TaskFlow on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
