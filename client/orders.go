package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

var errProofURLRequired = errors.New("payment proof image is required")

// GetOrder fetches one order by id or reference.
func (c *Client) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(http.MethodGet, "/orders/"+id, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder requests cancellation with the reason entered in the
// confirmation modal. An empty reason is rejected locally; no request is
// issued.
func (c *Client) CancelOrder(id, reason string) (*models.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.ErrReasonRequired
	}
	body := map[string]string{"reason": reason}
	var order models.Order
	if err := c.do(http.MethodPut, fmt.Sprintf("/orders/%s/cancel", id), body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UploadPaymentProof attaches the QR transfer screenshot reference. The order
// stays unpaid until the admin reviews the proof.
func (c *Client) UploadPaymentProof(id, imageURL string) (*models.Order, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, errProofURLRequired
	}
	body := map[string]string{"imageUrl": imageURL}
	var order models.Order
	if err := c.do(http.MethodPut, fmt.Sprintf("/orders/%s/payment-proof", id), body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// InitializeKhaltiPayment asks the API for a hosted payment URL to navigate
// the browser to. Completion is reported out-of-band via the return redirect;
// the caller refetches the order when the browser comes back.
func (c *Client) InitializeKhaltiPayment(id, websiteURL string) (string, error) {
	body := map[string]string{"website_url": websiteURL}
	var resp struct {
		Payment struct {
			PaymentURL string `json:"payment_url"`
		} `json:"payment"`
	}
	if err := c.do(http.MethodPost, fmt.Sprintf("/orders/%s/khalti/initialize", id), body, &resp); err != nil {
		return "", err
	}
	if resp.Payment.PaymentURL == "" {
		return "", errors.New("empty payment URL")
	}
	return resp.Payment.PaymentURL, nil
}
