// Package newsletter handles marketing list signups with bot-challenge
// verification and duplicate suppression.
package newsletter

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"

	"github.com/vitea-labs/storefront-api/internal/turnstile"
)

var (
	// ErrInvalidEmail is returned for addresses that do not parse.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrAlreadySubscribed is returned for duplicate signups (HTTP 409).
	ErrAlreadySubscribed = errors.New("email already subscribed")
)

// Subscriber is a newsletter list entry.
type Subscriber struct {
	Email        string
	DiscountCode string
	CreatedAt    time.Time
}

// Repository persists subscribers. Insert must return ErrAlreadySubscribed on
// a duplicate email.
type Repository interface {
	Insert(ctx context.Context, sub *Subscriber) (err error)
	Exists(ctx context.Context, email string) (bool, error)
	AllEmails(ctx context.Context) ([]string, error)
}

const (
	bloomCapacity = 200_000
	bloomFPR      = 0.001
)

// Service verifies the bot challenge and inserts the subscriber. A bloom
// filter seeded from existing subscribers answers the common resubmit case
// without a database round trip; a filter hit still confirms against the
// repository because of false positives.
type Service struct {
	repo     Repository
	verifier turnstile.Verifier

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewService creates a Service and seeds the duplicate filter from the
// repository. A seeding failure degrades to an empty filter: every signup
// then takes the repository path, which stays correct.
func NewService(ctx context.Context, repo Repository, verifier turnstile.Verifier) (*Service, error) {
	s := &Service{
		repo:     repo,
		verifier: verifier,
		seen:     bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}

	emails, err := repo.AllEmails(ctx)
	if err != nil {
		return s, errors.Wrap(err, "seed duplicate filter")
	}
	for _, email := range emails {
		s.seen.AddString(email)
	}
	return s, nil
}

// SubscribeRequest is one signup attempt.
type SubscribeRequest struct {
	Email          string
	TurnstileToken string
	DiscountCode   string
	RemoteIP       string
}

// Subscribe validates the email, verifies the challenge token, and inserts
// the subscriber. Returns ErrAlreadySubscribed for duplicates and
// turnstile.ErrChallengeFailed for failed challenges.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}

	if err := s.verifier.Verify(ctx, req.TurnstileToken, req.RemoteIP); err != nil {
		return err
	}

	if s.maybeSeen(email) {
		exists, err := s.repo.Exists(ctx, email)
		if err != nil {
			return errors.Wrap(err, "check subscriber")
		}
		if exists {
			return ErrAlreadySubscribed
		}
	}

	sub := &Subscriber{
		Email:        email,
		DiscountCode: req.DiscountCode,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Insert(ctx, sub); err != nil {
		return err
	}

	s.mu.Lock()
	s.seen.AddString(email)
	s.mu.Unlock()
	return nil
}

func (s *Service) maybeSeen(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.TestString(email)
}

// normalizeEmail lowercases and validates the address. Display names and
// whitespace are rejected; the stored form is the bare address.
func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
