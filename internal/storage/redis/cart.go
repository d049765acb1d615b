// Package redis implements cart persistence on Redis. Carts are stored as
// JSON values with a sliding TTL; abandoned carts expire on their own.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/vitea-labs/storefront-api/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by Redis. Writes are
// last-write-wins per cart key, which is the accepted behaviour for a cart
// shared across browser tabs.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository returns a CartRepository using the given client. ttl is
// how long an untouched cart survives; every save resets it.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, ttl: ttl}
}

// NewClient connects to Redis using a URL such as "redis://localhost:6379/0".
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}
	return redis.NewClient(opts), nil
}

func cartKey(id string) string {
	return "cart:" + id
}

func (r *CartRepository) Get(ctx context.Context, id string) (*cart.Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := r.client.Set(ctx, cartKey(c.ID), raw, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, cartKey(id)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
