package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	byKey map[string]*Fulfillment
	last  *Fulfillment
}

func newMockRepo(records ...*Fulfillment) *mockRepo {
	m := &mockRepo{byKey: make(map[string]*Fulfillment)}
	for _, r := range records {
		m.byKey[r.OrderNumber+"|"+r.Email] = r
	}
	return m
}

func (m *mockRepo) FindByOrderAndEmail(_ context.Context, orderNumber, email string) (*Fulfillment, error) {
	f, ok := m.byKey[orderNumber+"|"+email]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (m *mockRepo) Upsert(_ context.Context, f *Fulfillment) error {
	m.byKey[f.OrderNumber+"|"+f.Email] = f
	m.last = f
	return nil
}

// --- Tests ---

func TestTrack_RequiresBothCredentials(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Track(context.Background(), "1001", "")
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, err = svc.Track(context.Background(), "", "a@example.com")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestTrack_WrongEmailIsNotFound(t *testing.T) {
	svc := NewService(newMockRepo(&Fulfillment{
		OrderNumber: "1001",
		Email:       "owner@example.com",
		Status:      "shipped",
	}))

	_, err := svc.Track(context.Background(), "1001", "attacker@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTrack_ReturnsSanitizedSubset(t *testing.T) {
	updated := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc := NewService(newMockRepo(&Fulfillment{
		OrderNumber:    "1001",
		Email:          "owner@example.com",
		Status:         "shipped",
		Carrier:        "DHL",
		TrackingNumber: "JD0123456789",
		TrackingURL:    "https://track.example.com/JD0123456789",
		UpdatedAt:      updated,
	}))

	info, err := svc.Track(context.Background(), " 1001 ", "Owner@Example.com")
	require.NoError(t, err)

	assert.Equal(t, "1001", info.OrderNumber)
	assert.Equal(t, "shipped", info.Status)
	assert.Equal(t, "DHL", info.Carrier)
	assert.Equal(t, "JD0123456789", info.TrackingNumber)
	assert.Equal(t, updated, info.UpdatedAt)
}

func TestApplyUpdate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.ApplyUpdate(context.Background(), StatusUpdate{
		OrderNumber:    "1001",
		Email:          "Owner@Example.com",
		Status:         "in_transit",
		Carrier:        "DHL",
		TrackingNumber: "JD0123456789",
	})
	require.NoError(t, err)

	require.NotNil(t, repo.last)
	assert.Equal(t, "owner@example.com", repo.last.Email)
	assert.Equal(t, "in_transit", repo.last.Status)
	assert.False(t, repo.last.UpdatedAt.IsZero())
}

func TestApplyUpdate_RequiresOrderNumber(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.ApplyUpdate(context.Background(), StatusUpdate{Status: "shipped"})
	require.Error(t, err)
}
