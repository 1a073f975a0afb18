package pricing

import (
	"math"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

const (
	// FlatShipping is charged below the free-shipping threshold, in rupees.
	FlatShipping          = 100.0
	FreeShippingThreshold = 5000.0
	// VATRate is the standard 13% value-added tax.
	VATRate = 0.13
)

// Totals are the server-computed cart aggregates. Clients display them as-is
// and never recompute them from line items.
type Totals struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// ComputeTotals derives the aggregates from a reconciled item sequence.
func ComputeTotals(items []models.CartItem) Totals {
	var t Totals
	for _, item := range items {
		t.ItemsPrice += item.Price * float64(item.Qty)
	}
	t.ItemsPrice = round2(t.ItemsPrice)
	if t.ItemsPrice > 0 && t.ItemsPrice < FreeShippingThreshold {
		t.ShippingPrice = FlatShipping
	}
	t.TaxPrice = round2(t.ItemsPrice * VATRate)
	t.TotalPrice = round2(t.ItemsPrice + t.ShippingPrice + t.TaxPrice)
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
