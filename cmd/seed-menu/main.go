package main

import (
	"context"
	"os"

	"maremio_backend/internal/catalog"
	"maremio_backend/internal/catalog/service"
	"maremio_backend/migrations"
	"maremio_backend/platform/config"
	"maremio_backend/platform/db"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

const defaultSeedFile = "menu.yaml"

// seed-menu loads a YAML menu into the catalog. Products are matched by
// name, so running it twice only updates prices and descriptions.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	path := defaultSeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	log.Info("starting menu seed", "file", path)

	file, err := os.Open(path)
	if err != nil {
		log.Error("failed to open seed file", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	seed, err := service.ParseMenuSeed(file)
	if err != nil {
		log.Error("invalid seed file", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	catalogModule := catalog.NewModule(pool, validator.New(), log)
	report, err := catalogModule.Service().SeedMenu(ctx, seed)
	if err != nil {
		log.Error("menu seed failed", "error", err)
		return
	}

	log.Info("menu seed complete", "categories", report.Categories, "created", report.Created, "updated", report.Updated)
}
