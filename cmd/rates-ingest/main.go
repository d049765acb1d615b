// Command rates-ingest loads historical exchange-rate exports into the rate
// history table. Exports are gzipped CSV files with one "date,code,rate" row
// per line; files are decompressed and parsed concurrently, then written in
// batches.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vitea-labs/storefront-api/internal/storage/postgres"
)

const (
	batchSize     = 10_000
	progressEvery = 100_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing rates-*.csv.gz files")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("rates ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("rates ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "rates-*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no rates-*.csv.gz files in %s", dataDir)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewRateRepository(pool)

	slog.Info("ingesting rate exports", slog.Int("files", len(files)))

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(func() error {
			n, err := ingestFile(ctx, repo, file)
			if err != nil {
				return errors.Wrapf(err, "ingest %s", file)
			}
			slog.Info("file ingested", slog.String("file", file), slog.Int64("rows", n))
			return nil
		})
	}
	return g.Wait()
}

func ingestFile(ctx context.Context, repo *postgres.RateRepository, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	var (
		total   int64
		lineNum int
		batch   = make([]postgres.RateRow, 0, batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		lineNum++
		row, ok, err := parseLine(scanner.Text())
		if err != nil {
			return total, errors.Wrapf(err, "line %d", lineNum)
		}
		if !ok {
			continue
		}

		batch = append(batch, row)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
		if lineNum%progressEvery == 0 {
			slog.Info("progress", slog.String("file", path), slog.Int("lines", lineNum))
		}
	}
	if err := scanner.Err(); err != nil {
		return total, errors.Wrap(err, "read")
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// parseLine parses one "date,code,rate" row. Blank lines and the header row
// are skipped, not errors.
func parseLine(line string) (postgres.RateRow, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "date,") {
		return postgres.RateRow{}, false, nil
	}

	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return postgres.RateRow{}, false, errors.Errorf("expected 3 fields, got %d", len(parts))
	}

	asOf, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return postgres.RateRow{}, false, errors.Wrap(err, "parse date")
	}

	code := strings.ToUpper(strings.TrimSpace(parts[1]))
	if len(code) != 3 {
		return postgres.RateRow{}, false, errors.Errorf("bad currency code %q", parts[1])
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return postgres.RateRow{}, false, errors.Wrap(err, "parse rate")
	}
	if !rate.IsPositive() {
		return postgres.RateRow{}, false, errors.Errorf("non-positive rate %s", rate)
	}

	return postgres.RateRow{Code: code, Rate: rate, AsOf: asOf}, true, nil
}
