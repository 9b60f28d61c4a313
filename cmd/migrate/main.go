package main

// Run database migrations:
//   go run ./cmd/migrate
//   go run ./cmd/migrate -down

import (
	"context"
	"flag"
	"log"
	"os"

	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/storage/db"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if *down {
		err = db.RollbackMigration(ctx, sqlDB)
	} else {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		log.Printf("migration failed: %v", err)
		os.Exit(1)
	}

	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		log.Printf("failed to read migration version: %v", err)
		os.Exit(1)
	}
	log.Printf("database at migration version %d", version)
}
