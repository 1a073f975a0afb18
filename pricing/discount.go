// Package pricing holds the pure price computations shared by the cart and
// order handlers and by the client SDK: discount activity windows, original
// price reconstruction, per-item savings and cart aggregates.
package pricing

import (
	"time"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

// MaxLineQty caps a single cart line regardless of stock.
const MaxLineQty = 20

// Active reports whether a discount applies at the given instant. The server
// flag is necessary but not sufficient: the window is re-checked because the
// end date may have elapsed since the server last recomputed the flag. Both
// bounds are enforced; a discount scheduled for next week is not active today.
func Active(d *models.Discount, now time.Time) bool {
	if d == nil || !d.Active {
		return false
	}
	if d.EndDate.IsZero() {
		return false
	}
	if !d.StartDate.IsZero() && now.Before(d.StartDate) {
		return false
	}
	return !now.After(d.EndDate)
}

// OriginalPrice reconstructs the pre-discount price from the stored effective
// price by inverting the percentage. At 100% the inversion divides by zero,
// so the price is returned unchanged and no savings are shown.
func OriginalPrice(price float64, d *models.Discount, now time.Time) float64 {
	if !Active(d, now) {
		return price
	}
	if d.Percentage <= 0 || d.Percentage >= 100 {
		return price
	}
	return price / (1 - float64(d.Percentage)/100)
}

// Savings is the amount saved on qty units at the effective price under the
// given discount. Zero when the discount is not active.
func Savings(price float64, d *models.Discount, qty int, now time.Time) float64 {
	if !Active(d, now) {
		return 0
	}
	return (OriginalPrice(price, d, now) - price) * float64(qty)
}

// ItemSavings is Savings applied to one cart line.
func ItemSavings(item models.CartItem, now time.Time) float64 {
	d := item.Discount
	return Savings(item.Price, &d, item.Qty, now)
}

// OrderItemSavings is Savings applied to a frozen order line.
func OrderItemSavings(item models.OrderItem, now time.Time) float64 {
	d := item.Discount
	return Savings(item.Price, &d, item.Qty, now)
}

// ClampQty bounds a requested line quantity to [1, min(stock, MaxLineQty)].
// Callers validate requested >= 1 before any request is issued; the floor here
// is boundary defence only.
func ClampQty(requested, stock int) int {
	limit := stock
	if limit > MaxLineQty || limit <= 0 {
		limit = MaxLineQty
	}
	if requested > limit {
		requested = limit
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
