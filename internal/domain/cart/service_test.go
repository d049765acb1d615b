package cart

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func newTestLine(variantID, title string, price string, qty int) Line {
	return Line{
		VariantID: variantID,
		Product: ProductSnapshot{
			Title:    title,
			Handle:   title,
			ImageURL: "https://cdn.example.com/" + title + ".jpg",
		},
		UnitPrice: Money{
			Amount:       decimal.RequireFromString(price),
			CurrencyCode: "USD",
		},
		Quantity: qty,
	}
}

func newTestService() *Service {
	return NewService(NewMemoryRepository())
}

// --- Tests ---

func TestAddItem_NewLine(t *testing.T) {
	svc := newTestService()

	c, err := svc.AddItem(context.Background(), "", newTestLine("v1", "creatine", "29.99", 2))
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.NotEmpty(t, c.ID)
}

func TestAddItem_DuplicateVariantMergesQuantity(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 2))
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, newTestLine("v1", "creatine", "29.99", 3))
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAddItem_RepeatedAddsSumQuantities(t *testing.T) {
	// For any sequence of adds with the same variant ID, the cart ends with
	// exactly one line whose quantity is the sum of the individual adds.
	svc := newTestService()
	ctx := context.Background()

	rng := rand.New(rand.NewSource(7))
	id := ""
	want := 0
	for range 20 {
		qty := 1 + rng.Intn(5)
		want += qty
		c, err := svc.AddItem(ctx, id, newTestLine("v1", "creatine", "29.99", qty))
		require.NoError(t, err)
		id = c.ID
	}

	c, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, want, c.Lines[0].Quantity)
}

func TestAddItem_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "", newTestLine("", "creatine", "29.99", 1))
	require.ErrorIs(t, err, ErrEmptyVariantID)

	_, err = svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 0))
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdateQuantity_SetsExactValue(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 2))
	require.NoError(t, err)

	c, err = svc.UpdateQuantity(ctx, c.ID, "v1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Lines[0].Quantity)
}

func TestUpdateQuantity_BelowOneRemovesLine(t *testing.T) {
	for _, qty := range []int{0, -1} {
		t.Run(fmt.Sprintf("qty=%d", qty), func(t *testing.T) {
			svc := newTestService()
			ctx := context.Background()

			c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 2))
			require.NoError(t, err)

			c, err = svc.UpdateQuantity(ctx, c.ID, "v1", qty)
			require.NoError(t, err)
			assert.Empty(t, c.Lines)
		})
	}
}

func TestUpdateQuantity_AbsentVariantIsNoop(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 2))
	require.NoError(t, err)

	got, err := svc.UpdateQuantity(ctx, c.ID, "missing", 3)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestRemoveItem_AbsentVariantIsNoop(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 2))
	require.NoError(t, err)

	got, err := svc.RemoveItem(ctx, c.ID, "missing")
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
}

func TestClear(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 2))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, newTestLine("v2", "omega3", "19.50", 1))
	require.NoError(t, err)

	got, err := svc.Clear(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
	assert.Equal(t, 0, got.TotalItems())
}

func TestTotalPrice_MatchesSumOverLines(t *testing.T) {
	// Property: total equals the exact sum of unit price * quantity for any
	// cart composition.
	rng := rand.New(rand.NewSource(42))

	for range 50 {
		svc := newTestService()
		ctx := context.Background()

		want := decimal.Zero
		id := ""
		n := 1 + rng.Intn(10)
		for i := range n {
			price := decimal.NewFromInt(int64(rng.Intn(10000))).Div(decimal.NewFromInt(100))
			qty := 1 + rng.Intn(9)
			want = want.Add(price.Mul(decimal.NewFromInt(int64(qty))))

			c, err := svc.AddItem(ctx, id, Line{
				VariantID: fmt.Sprintf("v%d", i),
				UnitPrice: Money{Amount: price, CurrencyCode: "USD"},
				Quantity:  qty,
			})
			require.NoError(t, err)
			id = c.ID
		}

		c, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, want.Equal(c.TotalPrice()),
			"want %s, got %s", want, c.TotalPrice())
	}
}

func TestEndToEndTotals(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("V1", "creatine", "10.00", 2))
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, newTestLine("V2", "omega3", "25.00", 1))
	require.NoError(t, err)

	assert.Equal(t, 3, c.TotalItems())
	assert.True(t, decimal.RequireFromString("45.00").Equal(c.TotalPrice()))
}

func TestSetCurrency_DoesNotTouchStoredPrices(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", newTestLine("v1", "creatine", "29.99", 1))
	require.NoError(t, err)

	c, err = svc.SetCurrency(ctx, c.ID, "EUR")
	require.NoError(t, err)

	assert.Equal(t, "EUR", c.Currency)
	assert.Equal(t, "USD", c.Lines[0].UnitPrice.CurrencyCode)
	assert.True(t, decimal.RequireFromString("29.99").Equal(c.Lines[0].UnitPrice.Amount))
}
