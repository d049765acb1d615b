package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// RateSource fetches the current exchange-rate table from an upstream
// provider. Rates are units of target currency per one unit of BaseCurrency.
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Store holds the process-wide exchange-rate table and converts base-currency
// amounts into display prices.
//
// Price display must never block or fail on a rate problem: refresh failures
// keep the previously cached table, and unknown or non-positive rates fall
// back to the base rate of 1.
type Store struct {
	source RateSource
	maxAge time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewStore creates a Store seeded with the built-in fallback table. maxAge
// bounds how often RefreshRates actually hits the source (typically one hour).
func NewStore(source RateSource, maxAge time.Duration) *Store {
	return &Store{
		source: source,
		maxAge: maxAge,
		now:    time.Now,
		rates:  FallbackRates(),
	}
}

// Seed replaces the cached table without marking it fresh, so the next
// RefreshRates still consults the source. Used at startup to load the most
// recent persisted rates.
func (s *Store) Seed(rates map[string]decimal.Decimal) {
	if len(rates) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, rate := range rates {
		if rate.IsPositive() {
			s.rates[code] = rate
		}
	}
}

// RefreshRates fetches a new rate table unless the cached one is younger than
// maxAge. A fetch failure leaves the cached table in effect; the returned
// error exists for logging only and callers must not surface it to shoppers.
func (s *Store) RefreshRates(ctx context.Context) error {
	s.mu.RLock()
	fresh := !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.maxAge
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	fetched, err := s.source.FetchRates(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch rates")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for code, rate := range fetched {
		if rate.IsPositive() {
			s.rates[code] = rate
		}
	}
	s.fetchedAt = s.now()
	return nil
}

// Rate returns the exchange rate for the given currency code. Unknown codes
// and non-positive rates resolve to the base rate of 1.
func (s *Store) Rate(code string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.rates[code]
	if !ok || !rate.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return rate
}

// Rates returns a snapshot of the current table.
func (s *Store) Rates() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(s.rates))
	for code, rate := range s.rates {
		out[code] = rate
	}
	return out
}

// Known reports whether the store has a usable rate for the given code.
func (s *Store) Known(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.rates[code]
	return ok && rate.IsPositive()
}

// Convert turns a base-currency amount into a display amount in the given
// currency: the converted value is floored and the branding price ending is
// added. Stored amounts are never mutated; this is display-only and lossy.
func (s *Store) Convert(base decimal.Decimal, code string) decimal.Decimal {
	return base.Mul(s.Rate(code)).Floor().Add(priceEnding)
}

// Format renders a base-currency amount in the given currency with its
// symbol and two decimal places.
func (s *Store) Format(base decimal.Decimal, code string) string {
	return Symbol(code) + s.Convert(base, code).StringFixed(2)
}
