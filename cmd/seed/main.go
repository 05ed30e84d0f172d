package main

import (
	"context"
	"log"

	"wizzmo-be/internal/config"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/internal/service"
	"wizzmo-be/pkg/database"
)

// Installs the default question categories. Safe to run repeatedly.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	categories := service.NewCategoryService(unitofwork.NewRepositoryFactory(db), nil, logger.NewZapLogger(cfg.App.LogFilePath, false))

	log.Println("Seeding categories...")
	if err := categories.Seed(context.Background(), service.DefaultCategories); err != nil {
		log.Fatalf("Error: seeding categories failed: %v", err)
	}
	log.Printf("Seeded %d categories", len(service.DefaultCategories))
}
