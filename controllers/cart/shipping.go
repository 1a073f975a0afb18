package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

type ShippingInput struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type PaymentMethodInput struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

// PUT /cart/shipping
// Persists checkout step one. The client advances only after refetching the
// cart, so the next step reads these server-confirmed values.
func UpdateShippingAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			return
		}

		var input ShippingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		cart, err := loadCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		cart.ShippingAddress = models.ShippingAddress{
			Address:    input.Address,
			City:       input.City,
			PostalCode: input.PostalCode,
			Country:    input.Country,
		}
		if err := db.Save(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save shipping address"})
			return
		}

		respondWithCart(c, db, userID)
	}
}

// PUT /cart/payment
func UpdatePaymentMethod(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			return
		}

		var input PaymentMethodInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		method, err := models.ParsePaymentMethod(input.PaymentMethod)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cart, err := loadCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		cart.PaymentMethod = method
		if err := db.Save(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment method"})
			return
		}

		respondWithCart(c, db, userID)
	}
}
