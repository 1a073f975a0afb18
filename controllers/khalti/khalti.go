package khaltiControllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	orderControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/order"
	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

// khaltiInitResponse is the gateway's answer to an initialize call.
type khaltiInitResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
	Detail     string `json:"detail,omitempty"`
}

// khaltiLookupResponse is the gateway's answer to a lookup call. Status
// "Completed" is the only value treated as paid.
type khaltiLookupResponse struct {
	Pidx        string `json:"pidx"`
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
}

var (
	errPaymentNotCompleted   = errors.New("payment is not completed")
	errPaymentTokenMismatch  = errors.New("payment token does not belong to this order")
	errPaymentAmountMismatch = errors.New("paid amount does not match the order total")
)

// amountPaisa converts a rupee total to paisa. Rounded, not truncated:
// Rs 19.99 sits at 1998.9999... in a float64 and must still come out as
// 1999 paisa.
func amountPaisa(total float64) int64 {
	return int64(math.Round(total * 100))
}

func getKhaltiConfig() (secretKey, apiURL string, err error) {
	secretKey = os.Getenv("KHALTI_SECRET_KEY")
	apiURL = os.Getenv("KHALTI_API_URL")
	if apiURL == "" {
		apiURL = "https://a.khalti.com/api/v2"
	}
	if secretKey == "" {
		return "", "", fmt.Errorf("khalti configuration missing")
	}
	return secretKey, apiURL, nil
}

func khaltiPost(path string, payload any, out any) error {
	secretKey, apiURL, err := getKhaltiConfig()
	if err != nil {
		return err
	}

	jsonData, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", apiURL+path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+secretKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach Khalti: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("khalti API error (%d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse Khalti response: %v", err)
	}
	return nil
}

// initializePayment requests a hosted payment URL for the order. Amounts are
// sent in paisa. The gateway sends the browser back to this API's callback,
// which verifies the payment and then forwards to the storefront. The pidx
// the gateway issues is returned so it can be pinned to the order; the
// callback only honors that pidx.
func initializePayment(order *models.Order, websiteURL string) (paymentURL, pidx string, err error) {
	returnURL := os.Getenv("BASE_URL") + "/payments/khalti/callback"
	payload := map[string]any{
		"return_url":          returnURL,
		"website_url":         websiteURL,
		"amount":              amountPaisa(order.TotalPrice),
		"purchase_order_id":   order.OrderRef,
		"purchase_order_name": fmt.Sprintf("Order %s", order.OrderRef),
	}

	var initResp khaltiInitResponse
	if err := khaltiPost("/epayment/initialize/", payload, &initResp); err != nil {
		return "", "", err
	}
	if initResp.PaymentURL == "" || initResp.Pidx == "" {
		if initResp.Detail != "" {
			return "", "", errors.New("khalti error: " + initResp.Detail)
		}
		return "", "", errors.New("khalti returned empty payment URL")
	}
	return initResp.PaymentURL, initResp.Pidx, nil
}

// verifyLookup decides whether a looked-up payment actually settles this
// order. The pidx must be the one issued when this order was initialized (a
// Completed pidx from some other, possibly cheaper, payment proves nothing
// about this order), the status must be Completed, and the amount the gateway
// collected must equal the order total.
func verifyLookup(order *models.Order, pidx string, lookup khaltiLookupResponse) error {
	if order.PaymentToken == "" || pidx != order.PaymentToken {
		return errPaymentTokenMismatch
	}
	if lookup.Status != "Completed" {
		return errPaymentNotCompleted
	}
	if lookup.TotalAmount != amountPaisa(order.TotalPrice) {
		return errPaymentAmountMismatch
	}
	return nil
}

// POST /orders/:orderID/khalti/initialize
func InitializePaymentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			WebsiteURL string `json:"website_url" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var order models.Order
		id := c.Param("orderID")
		if err := db.Where("id = ? OR order_ref = ?", id, id).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		userIDVal, exists := c.Get("user_id")
		if !exists || order.UserID != userIDVal.(string) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
			return
		}
		if order.PaymentMethod != models.PaymentKhalti {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order is not a Khalti order"})
			return
		}
		if !order.CanPay() {
			c.JSON(http.StatusConflict, gin.H{"error": "order is not awaiting payment"})
			return
		}

		paymentURL, pidx, err := initializePayment(&order, input.WebsiteURL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		// Pin the issued pidx to the order. Re-initializing supersedes any
		// earlier token.
		if err := db.Model(&order).Update("payment_token", pidx).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"payment": gin.H{"payment_url": paymentURL},
		})
	}
}

// GET /payments/khalti/callback
// The browser returns here after the hosted payment page. The payment is
// verified through the lookup endpoint before anything is marked paid; the
// redirect query parameters alone are never trusted. The mark-paid write
// happens under a FOR UPDATE lock so it serializes with any concurrent
// cancel or admin transition.
func PaymentCallbackHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pidx := c.Query("pidx")
		orderRef := c.Query("purchase_order_id")
		if pidx == "" || orderRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing pidx or purchase_order_id"})
			return
		}

		frontend := os.Getenv("FRONTEND_URL")

		var lookup khaltiLookupResponse
		if err := khaltiPost("/epayment/lookup/", map[string]string{"pidx": pidx}, &lookup); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		var order models.Order
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("order_ref = ?", orderRef).
				First(&order).Error; err != nil {
				return err
			}
			if err := verifyLookup(&order, pidx, lookup); err != nil {
				return err
			}
			if err := order.Pay(time.Now()); err != nil {
				return err
			}
			order.PaymentResult = lookup.Pidx
			return tx.Save(&order).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			// Verification failed, already paid, or cancelled; the stored
			// state stands as-is.
			c.Redirect(http.StatusFound, fmt.Sprintf("%s/order/%d?payment=failed", frontend, order.ID))
			return
		}

		orderControllers.BroadcastOrderUpdate(order)
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/order/%d?payment=success", frontend, order.ID))
	}
}
