package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitea-labs/storefront-api/internal/domain/tracking"
)

var _ tracking.Repository = (*FulfillmentRepository)(nil)

// FulfillmentRepository implements tracking.Repository backed by PostgreSQL.
type FulfillmentRepository struct {
	pool *pgxpool.Pool
}

// NewFulfillmentRepository returns a FulfillmentRepository using the given pool.
func NewFulfillmentRepository(pool *pgxpool.Pool) *FulfillmentRepository {
	return &FulfillmentRepository{pool: pool}
}

// FindByOrderAndEmail returns the fulfillment matching both the order number
// and the email. A missing record returns tracking.ErrNotFound regardless of
// which half failed to match.
func (r *FulfillmentRepository) FindByOrderAndEmail(ctx context.Context, orderNumber, email string) (*tracking.Fulfillment, error) {
	var f tracking.Fulfillment
	err := r.pool.QueryRow(ctx,
		`SELECT order_number, email, status, carrier, tracking_number, tracking_url, updated_at
		 FROM fulfillments
		 WHERE order_number = $1 AND email = $2`,
		orderNumber, email,
	).Scan(&f.OrderNumber, &f.Email, &f.Status, &f.Carrier, &f.TrackingNumber, &f.TrackingURL, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracking.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find fulfillment %q", orderNumber)
	}
	return &f, nil
}

// Upsert inserts or replaces the fulfillment state for an order.
func (r *FulfillmentRepository) Upsert(ctx context.Context, f *tracking.Fulfillment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fulfillments (order_number, email, status, carrier, tracking_number, tracking_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (order_number) DO UPDATE SET
		   email = EXCLUDED.email,
		   status = EXCLUDED.status,
		   carrier = EXCLUDED.carrier,
		   tracking_number = EXCLUDED.tracking_number,
		   tracking_url = EXCLUDED.tracking_url,
		   updated_at = EXCLUDED.updated_at`,
		f.OrderNumber, f.Email, f.Status, f.Carrier, f.TrackingNumber, f.TrackingURL, f.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert fulfillment %q", f.OrderNumber)
	}
	return nil
}
