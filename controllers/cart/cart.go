package cartControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
	"github.com/AngelShahi/Susankyabazzar-sub000/pricing"
)

// CartItemInput is the upsert body. The wire shape mirrors a full line item,
// but only the product reference and quantity are trusted; name, image, price,
// discount and stock are snapshotted from the product row server-side.
type CartItemInput struct {
	ProductID uint `json:"product" binding:"required"`
	Qty       int  `json:"qty"`
}

// CartResponse is the cart with server-computed aggregates attached. Savings
// are recomputed at render time from the discount windows.
type CartResponse struct {
	CartItems       []models.CartItem      `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	TotalPrice      float64                `json:"totalPrice"`
	TotalSavings    float64                `json:"totalSavings"`
}

// NewCartResponse reconciles duplicate lines and derives the aggregates.
func NewCartResponse(cart models.Cart) CartResponse {
	items := pricing.Reconcile(cart.Items)
	totals := pricing.ComputeTotals(items)
	return CartResponse{
		CartItems:       items,
		ShippingAddress: cart.ShippingAddress,
		PaymentMethod:   cart.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalPrice:      totals.TotalPrice,
		TotalSavings:    pricing.TotalSavings(items, time.Now()),
	}
}

// loadCart fetches the user's cart, creating it on first authenticated access.
func loadCart(db *gorm.DB, userID string) (models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("added_at ASC, id ASC")
	}).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return cart, err
	}
	cart = models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		return cart, err
	}
	return cart, nil
}

func contextUserID(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userIDVal.(string), true
}

func respondWithCart(c *gin.Context, db *gorm.DB, userID string) {
	cart, err := loadCart(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, NewCartResponse(cart))
}

// GET /cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			return
		}
		respondWithCart(c, db, userID)
	}
}

// POST /cart
// Upserts one line keyed by product id. A request for a line that already has
// a mutation in flight is dropped and answered with the current cart, so rapid
// repeated clicks cannot race each other into an inconsistent quantity.
func UpsertCartItem(db *gorm.DB, guard *Inflight) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			return
		}

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		// Below-1 quantities are ignored rather than rejected.
		if input.Qty < 1 {
			respondWithCart(c, db, userID)
			return
		}

		key := lineKey(userID, input.ProductID)
		if !guard.TryAcquire(key) {
			respondWithCart(c, db, userID)
			return
		}
		defer guard.Release(key)

		var product models.Product
		if err := db.First(&product, "id = ?", input.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate product"})
			return
		}

		cart, err := loadCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		qty := pricing.ClampQty(input.Qty, product.Stock)

		var item models.CartItem
		err = db.Where("cart_id = ? AND product_id = ?", cart.CartID, input.ProductID).First(&item).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			item = models.CartItem{
				CartID:    cart.CartID,
				ProductID: product.ID,
				Name:      product.Name,
				Image:     product.Image,
				Price:     product.Price,
				Qty:       qty,
				Stock:     product.Stock,
				Discount:  product.Discount,
				AddedAt:   time.Now(),
			}
			if err := db.Create(&item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
				return
			}
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart item"})
			return
		default:
			// Overwrite the existing line, never append a duplicate. The
			// snapshot fields are refreshed alongside the quantity.
			item.Qty = qty
			item.Price = product.Price
			item.Stock = product.Stock
			item.Discount = product.Discount
			item.AddedAt = time.Now()
			if err := db.Save(&item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
				return
			}
		}

		respondWithCart(c, db, userID)
	}
}

// DELETE /cart/item/:id
// Removal is not guarded by the in-flight table; deleting an already-removed
// line reports not found and the client treats that as settled.
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			return
		}
		productID := c.Param("id")

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			return
		}

		result := db.Where("cart_id = ? AND product_id = ?", cart.CartID, productID).Delete(&models.CartItem{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}

		respondWithCart(c, db, userID)
	}
}

// DELETE /cart
func ClearCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			return
		}

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user cart"})
			return
		}

		if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /admin/users/:user_id/cart
func GetAdminUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		var cart models.Cart
		if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			return
		}
		c.JSON(http.StatusOK, NewCartResponse(cart))
	}
}
