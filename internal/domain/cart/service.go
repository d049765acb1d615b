package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
)

// Sentinel errors for cart mutations.
var (
	ErrEmptyVariantID  = errors.New("variant id required")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Service encapsulates cart mutations. Every mutation persists the whole
// cart through the repository before returning.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a cart Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get loads a cart by ID. An unknown or empty ID yields a fresh empty cart
// with a new ID; the caller is expected to echo the ID back to the shopper.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	if id != "" {
		c, err := s.repo.Get(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(err, "load cart")
		}
	}
	return &Cart{
		ID:        uuid.New().String(),
		Currency:  pricing.BaseCurrency,
		UpdatedAt: s.now(),
	}, nil
}

// AddItem merges the draft line into the cart. A line with the same variant
// ID has its quantity increased by the draft's quantity; otherwise the line
// is appended. Duplicate adds are normal merge behaviour, not an error.
func (s *Service) AddItem(ctx context.Context, cartID string, draft Line) (*Cart, error) {
	if draft.VariantID == "" {
		return nil, ErrEmptyVariantID
	}
	if draft.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if i := c.findLine(draft.VariantID); i >= 0 {
		c.Lines[i].Quantity += draft.Quantity
	} else {
		c.Lines = append(c.Lines, draft)
	}
	return s.save(ctx, c)
}

// UpdateQuantity sets a line's quantity exactly. A quantity below 1 removes
// the line. An absent variant ID is a no-op, not an error.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, variantID string, quantity int) (*Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	i := c.findLine(variantID)
	if i < 0 {
		return c, nil
	}
	if quantity < 1 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	} else {
		c.Lines[i].Quantity = quantity
	}
	return s.save(ctx, c)
}

// RemoveItem removes the line with the given variant ID. Absent IDs are a
// no-op.
func (s *Service) RemoveItem(ctx context.Context, cartID, variantID string) (*Cart, error) {
	return s.UpdateQuantity(ctx, cartID, variantID, 0)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.Lines = nil
	return s.save(ctx, c)
}

// SetCurrency replaces the cart's display currency. Stored line prices stay
// in the base currency; only rendering changes.
func (s *Service) SetCurrency(ctx context.Context, cartID, code string) (*Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.Currency = code
	return s.save(ctx, c)
}

func (s *Service) save(ctx context.Context, c *Cart) (*Cart, error) {
	c.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
