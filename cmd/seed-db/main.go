// Command seed-db prepares a development database: it runs migrations, writes
// the fallback exchange-rate table into rate history, and inserts a few
// fulfillment records so order tracking works out of the box.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
	"github.com/vitea-labs/storefront-api/internal/domain/tracking"
	"github.com/vitea-labs/storefront-api/internal/storage/postgres"
)

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
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

	if err := seedRates(ctx, pool); err != nil {
		return errors.Wrap(err, "seed rates")
	}

	if err := seedFulfillments(ctx, pool); err != nil {
		return errors.Wrap(err, "seed fulfillments")
	}

	return nil
}

func seedRates(ctx context.Context, pool *pgxpool.Pool) error {
	repo := postgres.NewRateRepository(pool)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	rows := make([]postgres.RateRow, 0)
	for code, rate := range pricing.FallbackRates() {
		rows = append(rows, postgres.RateRow{Code: code, Rate: rate, AsOf: today})
	}

	slog.Info("seeding exchange rates", slog.Int("count", len(rows)))

	n, err := repo.InsertBatch(ctx, rows)
	if err != nil {
		return err
	}

	slog.Info("seeded exchange rates", slog.Int64("inserted", n))
	return nil
}

func seedFulfillments(ctx context.Context, pool *pgxpool.Pool) error {
	repo := postgres.NewFulfillmentRepository(pool)

	demo := []tracking.Fulfillment{
		{
			OrderNumber:    "VT-1001",
			Email:          "demo@example.com",
			Status:         "in_transit",
			Carrier:        "DHL",
			TrackingNumber: "JD014600003RS",
			TrackingURL:    "https://www.dhl.com/track?id=JD014600003RS",
			UpdatedAt:      time.Now(),
		},
		{
			OrderNumber: "VT-1002",
			Email:       "demo@example.com",
			Status:      "processing",
			UpdatedAt:   time.Now(),
		},
	}

	for i := range demo {
		if err := repo.Upsert(ctx, &demo[i]); err != nil {
			return errors.Wrapf(err, "upsert fulfillment %s", demo[i].OrderNumber)
		}
		slog.Info("upserted fulfillment",
			slog.String("order", demo[i].OrderNumber),
			slog.String("status", demo[i].Status))
	}

	return nil
}
