package main

import (
	"log"
	"os"

	"wizzmo-be/internal/model"
	"wizzmo-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.User{},
		&model.UserProvider{},
		&model.UserRefreshToken{},
		&model.Category{},
		&model.Question{},
		&model.Comment{},
		&model.Vote{},
		&model.Favorite{},
		&model.AdviceSession{},
		&model.Message{},
		&model.Reaction{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating constraints and views...")
	postMigrationSQL := []string{
		`DO $$ BEGIN
		   ALTER TABLE advice_sessions ADD CONSTRAINT chk_advice_sessions_status
		   CHECK (status IN ('pending', 'assigned', 'active', 'resolved'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		`DO $$ BEGIN
		   ALTER TABLE advice_sessions ADD CONSTRAINT chk_advice_sessions_rating
		   CHECK (rating IS NULL OR rating BETWEEN 1 AND 5);
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		`DO $$ BEGIN
		   ALTER TABLE votes ADD CONSTRAINT chk_votes_type
		   CHECK (vote_type IN ('up', 'down'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		// one session per (question, mentor) for directed questions
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_advice_sessions_question_mentor
		 ON advice_sessions (question_id, mentor_id)
		 WHERE mentor_id IS NOT NULL AND deleted_at IS NULL;`,

		`CREATE OR REPLACE VIEW mentor_stats AS
		 SELECT s.mentor_id,
		        COUNT(*) FILTER (WHERE s.status = 'resolved') AS sessions_resolved,
		        COUNT(*) FILTER (WHERE s.status = 'active') AS sessions_active,
		        COALESCE(AVG(s.rating), 0) AS rating_average,
		        COUNT(s.rating) AS rating_count
		 FROM advice_sessions s
		 WHERE s.mentor_id IS NOT NULL AND s.deleted_at IS NULL
		 GROUP BY s.mentor_id;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: database migration completed.")
}
