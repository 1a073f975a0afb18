package pricing

import (
	"testing"
	"time"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileMergesDuplicateProducts(t *testing.T) {
	raw := []models.CartItem{
		{ID: 1, ProductID: 101, Name: "A", Qty: 2},
		{ID: 2, ProductID: 101, Name: "A", Qty: 3},
		{ID: 3, ProductID: 102, Name: "B", Qty: 1},
	}

	got := Reconcile(raw)
	require.Len(t, got, 2)
	assert.Equal(t, uint(101), got[0].ProductID)
	assert.Equal(t, 5, got[0].Qty)
	assert.Equal(t, uint(102), got[1].ProductID)
	assert.Equal(t, 1, got[1].Qty)
}

func TestReconcileIdempotent(t *testing.T) {
	deduped := []models.CartItem{
		{ID: 1, ProductID: 101, Qty: 5},
		{ID: 3, ProductID: 102, Qty: 1},
	}
	assert.Equal(t, deduped, Reconcile(deduped))
}

func TestReconcileConservesQuantity(t *testing.T) {
	raw := []models.CartItem{
		{ID: 1, ProductID: 7, Qty: 4},
		{ID: 2, ProductID: 9, Qty: 1},
		{ID: 3, ProductID: 7, Qty: 2},
		{ID: 4, ProductID: 9, Qty: 6},
		{ID: 5, ProductID: 3, Qty: 1},
	}
	assert.Equal(t, TotalQty(raw), TotalQty(Reconcile(raw)))
}

func TestReconcileFallsBackToEntryID(t *testing.T) {
	// Entries without a product reference never merge with each other.
	raw := []models.CartItem{
		{ID: 1, Qty: 2},
		{ID: 2, Qty: 3},
	}
	got := Reconcile(raw)
	require.Len(t, got, 2)
	assert.Equal(t, TotalQty(raw), TotalQty(got))
}

func TestTotalSavings(t *testing.T) {
	now := time.Now()
	active := models.Discount{Percentage: 20, Active: true, EndDate: now.Add(time.Hour)}
	items := []models.CartItem{
		{ProductID: 1, Price: 80, Qty: 2, Discount: active}, // saves 40
		{ProductID: 2, Price: 50, Qty: 1},                   // no discount
	}
	assert.InDelta(t, 40.0, TotalSavings(items, now), 1e-9)
}

func TestComputeTotals(t *testing.T) {
	items := []models.CartItem{
		{ProductID: 1, Price: 200, Qty: 2},
		{ProductID: 2, Price: 100, Qty: 1},
	}
	totals := ComputeTotals(items)
	assert.Equal(t, 500.0, totals.ItemsPrice)
	assert.Equal(t, FlatShipping, totals.ShippingPrice)
	assert.Equal(t, 65.0, totals.TaxPrice)
	assert.Equal(t, 665.0, totals.TotalPrice)
}

func TestComputeTotalsFreeShipping(t *testing.T) {
	items := []models.CartItem{{ProductID: 1, Price: 2600, Qty: 2}}
	totals := ComputeTotals(items)
	assert.Zero(t, totals.ShippingPrice)

	empty := ComputeTotals(nil)
	assert.Zero(t, empty.ShippingPrice)
	assert.Zero(t, empty.TotalPrice)
}
