package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitea-labs/storefront-api/internal/domain/newsletter"
)

var _ newsletter.Repository = (*SubscriberRepository)(nil)

// SubscriberRepository implements newsletter.Repository backed by PostgreSQL.
type SubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriberRepository returns a SubscriberRepository using the given pool.
func NewSubscriberRepository(pool *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// Insert stores a new subscriber. Duplicate emails map to
// newsletter.ErrAlreadySubscribed via the unique index.
func (r *SubscriberRepository) Insert(ctx context.Context, sub *newsletter.Subscriber) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO newsletter_subscribers (email, discount_code, created_at)
		 VALUES ($1, $2, $3)`,
		sub.Email, sub.DiscountCode, sub.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return newsletter.ErrAlreadySubscribed
		}
		return errors.Wrapf(err, "insert subscriber %q", sub.Email)
	}
	return nil
}

// Exists reports whether the email is already subscribed.
func (r *SubscriberRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM newsletter_subscribers WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check subscriber")
	}
	return exists, nil
}

// AllEmails returns every subscribed email, used to seed the duplicate
// filter at startup.
func (r *SubscriberRepository) AllEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM newsletter_subscribers`)
	if err != nil {
		return nil, errors.Wrap(err, "list subscriber emails")
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, errors.Wrap(err, "scan email")
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
