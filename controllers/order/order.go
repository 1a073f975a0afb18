package orderControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

// findOrder resolves :orderID as either a numeric id or an order ref.
func findOrder(db *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items").
		Where("id = ? OR order_ref = ?", id, id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GET /orders/:orderID
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		order, err := findOrder(db, c.Param("orderID"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if order.UserID != userIDVal.(string) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// GET /orders
func GetMyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var orders []models.Order
		if err := db.
			Where("user_id = ?", userIDVal.(string)).
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}
