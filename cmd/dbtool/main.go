package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"tour-route-service/internal/adapters/repositories"
	"tour-route-service/internal/config"
	"tour-route-service/internal/platform/db"
	"tour-route-service/internal/platform/obs"
)

func main() {
	seedOnly := flag.Bool("seed-only", false, "skip schema initialization")
	schemaOnly := flag.Bool("schema-only", false, "skip seeding")
	seedPath := flag.String("seed", "", "path to the tours seed file (defaults to database.seed_path)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := obs.NewLogger(cfg.Env)

	if cfg.Database.URL == "" {
		log.Fatal("database.url is required (TOUR_DATABASE_URL)")
	}

	pool, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if !*seedOnly {
		logger.InfoContext(ctx, "initializing database schema")
		if err := repositories.InitSchema(ctx, pool); err != nil {
			log.Fatalf("schema initialization failed: %v", err)
		}
		logger.InfoContext(ctx, "schema ready")
	}

	if *schemaOnly {
		return
	}

	path := *seedPath
	if path == "" {
		path = cfg.Database.SeedPath
	}
	logger.InfoContext(ctx, "seeding tours", "path", path)
	if err := repositories.SeedFromJSON(ctx, pool, path); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	logger.InfoContext(ctx, "seeding complete")
}
