package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"wizzmo-be/internal/bootstrap"
	"wizzmo-be/internal/config"
	"wizzmo-be/internal/server"
	"wizzmo-be/internal/tracer"
	"wizzmo-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(ctx, "wizzmo-be", cfg.App.Environment)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	// 2. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Dependencies
	container := bootstrap.NewContainer(ctx, gormDB, cfg)

	// 4. Background services
	go container.WebSocketHub.Run(ctx)

	go func() {
		if err := container.RealtimeService.Start(ctx); err != nil {
			container.Logger.Error("Main", "Realtime service stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	go func() {
		container.Logger.Info("Main", "Starting mentor stats consumer", nil)
		if err := container.ConsumerService.Consume(ctx); err != nil {
			container.Logger.Error("Main", "Mentor stats consumer stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 5. HTTP server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
