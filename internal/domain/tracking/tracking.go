// Package tracking answers shopper "where is my order" lookups from
// fulfillment data pushed by the supplier.
package tracking

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no fulfillment matches the order number
	// and email pair. Lookups that match the order number but not the email
	// return the same error so order numbers cannot be enumerated.
	ErrNotFound = errors.New("order not found")
	// ErrMissingCredentials is returned when either the order number or the
	// email is absent. Both are required.
	ErrMissingCredentials = errors.New("order number and email are required")
)

// Fulfillment is the full supplier-side record. Only a sanitized subset ever
// leaves this package.
type Fulfillment struct {
	OrderNumber    string
	Email          string
	Status         string
	Carrier        string
	TrackingNumber string
	TrackingURL    string
	UpdatedAt      time.Time
}

// Info is the sanitized view returned to shoppers.
type Info struct {
	OrderNumber    string    `json:"orderNumber"`
	Status         string    `json:"status"`
	Carrier        string    `json:"carrier,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	TrackingURL    string    `json:"trackingUrl,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Repository persists fulfillment records.
type Repository interface {
	FindByOrderAndEmail(ctx context.Context, orderNumber, email string) (*Fulfillment, error)
	Upsert(ctx context.Context, f *Fulfillment) error
}

// Service provides tracking lookups and webhook-driven status updates.
type Service struct {
	repo Repository
}

// NewService creates a tracking Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Track returns the sanitized fulfillment state for the given order number
// and email. Both must be present and match the stored record.
func (s *Service) Track(ctx context.Context, orderNumber, email string) (*Info, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	email = strings.ToLower(strings.TrimSpace(email))
	if orderNumber == "" || email == "" {
		return nil, ErrMissingCredentials
	}

	f, err := s.repo.FindByOrderAndEmail(ctx, orderNumber, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find fulfillment")
	}

	return &Info{
		OrderNumber:    f.OrderNumber,
		Status:         f.Status,
		Carrier:        f.Carrier,
		TrackingNumber: f.TrackingNumber,
		TrackingURL:    f.TrackingURL,
		UpdatedAt:      f.UpdatedAt,
	}, nil
}

// StatusUpdate is an inbound shipping-status change from the fulfillment
// supplier's webhook.
type StatusUpdate struct {
	OrderNumber    string
	Email          string
	Status         string
	Carrier        string
	TrackingNumber string
	TrackingURL    string
}

// ApplyUpdate upserts the fulfillment record for a verified webhook payload.
func (s *Service) ApplyUpdate(ctx context.Context, u StatusUpdate) error {
	if strings.TrimSpace(u.OrderNumber) == "" {
		return errors.New("order number required")
	}
	f := &Fulfillment{
		OrderNumber:    strings.TrimSpace(u.OrderNumber),
		Email:          strings.ToLower(strings.TrimSpace(u.Email)),
		Status:         u.Status,
		Carrier:        u.Carrier,
		TrackingNumber: u.TrackingNumber,
		TrackingURL:    u.TrackingURL,
		UpdatedAt:      time.Now(),
	}
	if err := s.repo.Upsert(ctx, f); err != nil {
		return errors.Wrap(err, "upsert fulfillment")
	}
	return nil
}
