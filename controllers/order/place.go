package orderControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
	"github.com/AngelShahi/Susankyabazzar-sub000/pricing"
)

var (
	errCartEmpty       = errors.New("cart is empty")
	errShippingMissing = errors.New("shipping address is required")
	errPaymentMissing  = errors.New("payment method is required")
)

// generateOrderRef returns a unique, sortable order reference.
func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// placeOrder snapshots the user's cart into an order. Line prices and discount
// windows are copied from the cart lines, not re-read from the products: the
// price the customer saw is the price frozen into the order. Stock is checked
// and deducted under row locks in one transaction. The cart itself is NOT
// cleared here; the storefront issues an explicit DELETE /cart once it has the
// confirmation in hand.
func placeOrder(db *gorm.DB, userID string) (*models.Order, error) {
	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}

	items := pricing.Reconcile(cart.Items)
	if len(items) == 0 {
		return nil, errCartEmpty
	}
	if cart.ShippingAddress.Address == "" {
		return nil, errShippingMissing
	}
	if cart.PaymentMethod == "" {
		return nil, errPaymentMissing
	}

	now := time.Now()
	totals := pricing.ComputeTotals(items)

	order := models.Order{
		OrderRef:        generateOrderRef(),
		UserID:          userID,
		ShippingAddress: cart.ShippingAddress,
		PaymentMethod:   cart.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalPrice:      totals.TotalPrice,
		TotalSavings:    pricing.TotalSavings(items, now),
		CreatedAt:       now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, "id = ?", item.ProductID).Error; err != nil {
				return err
			}

			if product.Stock < item.Qty {
				return errors.New("insufficient stock for product: " + item.Name)
			}

			product.Stock -= item.Qty
			if err := tx.Save(&product).Error; err != nil {
				return err
			}

			order.Items = append(order.Items, models.OrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Image:     item.Image,
				Price:     item.Price,
				Qty:       item.Qty,
				Discount:  item.Discount,
			})
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// POST /orders
func PlaceOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		order, err := placeOrder(db, userID)
		if err != nil {
			switch {
			case errors.Is(err, errShippingMissing), errors.Is(err, errPaymentMissing):
				// The storefront maps this onto a redirect back to the
				// shipping step of the checkout wizard.
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			case errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		BroadcastOrderUpdate(*order)
		c.JSON(http.StatusCreated, order)
	}
}
