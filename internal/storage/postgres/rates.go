package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RateRow is one historical exchange-rate observation.
type RateRow struct {
	Code string
	Rate decimal.Decimal
	AsOf time.Time
}

// RateRepository stores exchange-rate history. The latest observation per
// code seeds the pricing store at startup so a cold process does not fall
// back to built-in defaults when fresher persisted rates exist.
type RateRepository struct {
	pool *pgxpool.Pool
}

// NewRateRepository returns a RateRepository using the given pool.
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

// Latest returns the most recent rate per currency code.
func (r *RateRepository) Latest(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (code) code, rate
		 FROM rate_history
		 ORDER BY code, as_of DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query latest rates")
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code string
		var rate decimal.Decimal
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, errors.Wrap(err, "scan rate")
		}
		out[code] = rate
	}
	return out, rows.Err()
}

// InsertBatch bulk-loads rate observations via COPY. Conflicting (code, as_of)
// pairs are replaced in a staging-free upsert loop when COPY fails.
func (r *RateRepository) InsertBatch(ctx context.Context, batch []RateRow) (int64, error) {
	copied, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"rate_history"},
		[]string{"code", "rate", "as_of"},
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return []any{batch[i].Code, batch[i].Rate, batch[i].AsOf}, nil
		}),
	)
	if err == nil {
		return copied, nil
	}

	// COPY cannot handle conflicts; fall back to row-wise upserts.
	var n int64
	for _, row := range batch {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO rate_history (code, rate, as_of)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (code, as_of) DO UPDATE SET rate = EXCLUDED.rate`,
			row.Code, row.Rate, row.AsOf,
		)
		if execErr != nil {
			return n, errors.Wrapf(execErr, "upsert rate %s@%s", row.Code, row.AsOf.Format("2006-01-02"))
		}
		n++
	}
	return n, nil
}

// Insert stores a single observation, replacing any existing one for the
// same code and date.
func (r *RateRepository) Insert(ctx context.Context, row RateRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rate_history (code, rate, as_of)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (code, as_of) DO UPDATE SET rate = EXCLUDED.rate`,
		row.Code, row.Rate, row.AsOf,
	)
	if err != nil {
		return errors.Wrapf(err, "insert rate %s", row.Code)
	}
	return nil
}
