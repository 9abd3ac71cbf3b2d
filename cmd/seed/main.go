package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/prephub/prephub-api/internal/auth"
	"github.com/prephub/prephub-api/internal/config"
	"github.com/prephub/prephub-api/internal/courses"
	"github.com/prephub/prephub-api/internal/db"
	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/seeds"
)

func main() {
	_ = godotenv.Load(".env.local")

	cost, err := config.LoadBcryptCost(os.LookupEnv)
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	logger := logging.Setup("prephub-seed", "dev", "text", os.Stdout)

	d, err := db.Connect(os.Getenv("DATABASE_URL"), logger)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	if err := auth.Init(d); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	if err := courses.Init(d); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	opts := seeds.Options{
		AdminEmail:    os.Getenv("PREPHUB_ADMIN_EMAIL"),
		AdminUsername: os.Getenv("PREPHUB_ADMIN_USERNAME"),
		AdminPassword: os.Getenv("PREPHUB_ADMIN_PASSWORD"),
		BcryptCost:    cost,
	}
	if err := seeds.SeedAll(context.Background(), d, opts, logger); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
