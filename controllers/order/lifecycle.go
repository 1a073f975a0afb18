package orderControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

type CancelOrderInput struct {
	Reason string `json:"reason"`
}

type PaymentProofInput struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

var errNotYourOrder = errors.New("not your order")

// lifecycleStatus maps a transition error to an HTTP status. A missing reason
// is a validation problem; a guard rejection is a state conflict.
func lifecycleStatus(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotYourOrder):
		return http.StatusForbidden
	case errors.Is(err, models.ErrReasonRequired):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrOrderCancelled),
		errors.Is(err, models.ErrOrderAlreadyPaid),
		errors.Is(err, models.ErrOrderNotPaid),
		errors.Is(err, models.ErrOrderDelivered),
		errors.Is(err, models.ErrCancelPaidOrder),
		errors.Is(err, models.ErrProofNotQR),
		errors.Is(err, models.ErrProofAlreadySet):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// transitionOrder runs a lifecycle transition inside one transaction, holding
// a FOR UPDATE lock on the order row. Concurrent transitions serialize on the
// lock, so the second one re-reads the flags the first one committed; a pay
// loaded before a cancel commits cannot write is_paid over a cancelled order.
func transitionOrder(c *gin.Context, db *gorm.DB, apply func(*models.Order) error) {
	id := c.Param("orderID")

	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").
			Where("id = ? OR order_ref = ?", id, id).
			First(&order).Error; err != nil {
			return err
		}
		if err := apply(&order); err != nil {
			return err
		}
		return tx.Save(&order).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(lifecycleStatus(err), gin.H{"error": err.Error()})
		return
	}

	BroadcastOrderUpdate(order)
	c.JSON(http.StatusOK, order)
}

// PUT /admin/orders/:orderID/pay
// Manual marking by the admin, after reviewing a QR proof or a cash handover.
func PayOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionOrder(c, db, func(order *models.Order) error {
			return order.Pay(time.Now())
		})
	}
}

// PUT /admin/orders/:orderID/deliver
func DeliverOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionOrder(c, db, func(order *models.Order) error {
			return order.Deliver(time.Now())
		})
	}
}

// CancelOrderHandler serves both the customer route and the admin route. The
// admin variant may cancel a paid order (a disputed Khalti payment); customers
// never can, and must own the order.
func CancelOrderHandler(db *gorm.DB, adminOverride bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CancelOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		userIDVal, hasUser := c.Get("user_id")

		transitionOrder(c, db, func(order *models.Order) error {
			if !adminOverride {
				if !hasUser || order.UserID != userIDVal.(string) {
					return errNotYourOrder
				}
			}
			return order.Cancel(input.Reason, time.Now(), adminOverride)
		})
	}
}

// PUT /orders/:orderID/payment-proof
// Stores the customer's QR transfer screenshot reference. Payment stays
// pending until the admin reviews the proof and marks the order paid.
func UploadPaymentProofHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input PaymentProofInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		userIDVal, hasUser := c.Get("user_id")

		transitionOrder(c, db, func(order *models.Order) error {
			if !hasUser || order.UserID != userIDVal.(string) {
				return errNotYourOrder
			}
			return order.AttachPaymentProof(input.ImageURL)
		})
	}
}
