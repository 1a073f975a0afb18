package pricing

import (
	"time"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

// Reconcile merges a raw cart item sequence into a unique-by-product view.
// Legacy carts can hold two entries for the same product; those are one
// logical line, so quantities are summed onto the first occurrence. Entries
// without a product reference fall back to their own row id and never merge
// with each other. Input order of first occurrence is preserved, and the
// total quantity is conserved.
func Reconcile(items []models.CartItem) []models.CartItem {
	merged := make([]models.CartItem, 0, len(items))
	index := make(map[uint]int, len(items))

	for _, item := range items {
		key := item.ProductID
		if key == 0 {
			key = item.ID
		}
		if at, ok := index[key]; ok {
			merged[at].Qty += item.Qty
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// TotalQty sums line quantities.
func TotalQty(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Qty
	}
	return total
}

// TotalSavings sums active-discount savings over the given lines.
func TotalSavings(items []models.CartItem, now time.Time) float64 {
	total := 0.0
	for _, item := range items {
		total += ItemSavings(item, now)
	}
	return total
}
