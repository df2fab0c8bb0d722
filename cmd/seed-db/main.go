package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/pizza-bakker/db"
	"github.com/xenking/pizza-bakker/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to catalog JSON file (defaults to the embedded catalog)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	data, err := loadCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting catalog",
		slog.Int("prices", len(data.Prices)),
		slog.Int("toppings", len(data.Toppings)),
		slog.Int("drinks", len(data.Drinks)),
		slog.Int("presets", len(data.Presets)),
		slog.Int("coupons", len(data.Coupons)),
	)

	return postgres.Seed(ctx, pool, data)
}

func loadCatalog(path string) (postgres.SeedData, error) {
	raw := db.Catalog
	if path != "" {
		slog.Info("reading catalog file", slog.String("path", path))

		b, err := os.ReadFile(path)
		if err != nil {
			return postgres.SeedData{}, errors.Wrap(err, "read catalog file")
		}
		raw = b
	}

	var data postgres.SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return postgres.SeedData{}, errors.Wrap(err, "parse catalog JSON")
	}
	return data, nil
}
