package client

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
	"github.com/AngelShahi/Susankyabazzar-sub000/pricing"
)

// Cart is the server cart plus its computed aggregates. The aggregates are
// displayed as-is; only savings are recomputed locally at render time.
type Cart struct {
	CartItems       []models.CartItem      `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	TotalPrice      float64                `json:"totalPrice"`
	TotalSavings    float64                `json:"totalSavings"`
}

// cartLinePayload is the upsert body: the full line item shape the contract
// specifies. The server locates the existing entry by product id and
// overwrites its quantity rather than appending a duplicate.
type cartLinePayload struct {
	ProductID uint            `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     float64         `json:"price"`
	Qty       int             `json:"qty"`
	Stock     int             `json:"quantity"`
	Discount  models.Discount `json:"discount"`
}

// FetchCart returns the authoritative cart. Duplicate lines from legacy
// double-adds are reconciled into one logical line per product, and savings
// are recomputed against the current clock.
func (c *Client) FetchCart() (*Cart, error) {
	var cart Cart
	if err := c.do(http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	cart.CartItems = pricing.Reconcile(cart.CartItems)
	cart.TotalSavings = pricing.TotalSavings(cart.CartItems, time.Now())
	return &cart, nil
}

// ChangeQuantity sets a line's quantity as entered in the UI. Non-numeric or
// below-1 input is silently ignored, as is a request for a line that already
// has a mutation in flight (a double-click must not issue overlapping
// requests). The requested value is clamped to stock and the per-line cap.
// The returned bool reports whether a request was actually issued. On request
// failure the authoritative cart is refetched rather than patched locally,
// and returned alongside the error when available.
func (c *Client) ChangeQuantity(item models.CartItem, requested string) (*Cart, bool, error) {
	qty, err := strconv.Atoi(requested)
	if err != nil || qty < 1 {
		return nil, false, nil
	}

	if !c.tryAcquire(item.ProductID) {
		return nil, false, nil
	}
	defer c.release(item.ProductID)

	payload := cartLinePayload{
		ProductID: item.ProductID,
		Name:      item.Name,
		Image:     item.Image,
		Price:     item.Price,
		Qty:       pricing.ClampQty(qty, item.Stock),
		Stock:     item.Stock,
		Discount:  item.Discount,
	}

	var cart Cart
	if err := c.do(http.MethodPost, "/cart", payload, &cart); err != nil {
		resynced, ferr := c.FetchCart()
		if ferr != nil {
			return nil, true, err
		}
		return resynced, true, err
	}

	cart.CartItems = pricing.Reconcile(cart.CartItems)
	cart.TotalSavings = pricing.TotalSavings(cart.CartItems, time.Now())
	return &cart, true, nil
}

// RemoveItem deletes a line. Removal is not guarded: removing a line that is
// already gone settles as a no-op (the server answers not-found), after which
// the cart is refetched either way.
func (c *Client) RemoveItem(productID uint) (*Cart, error) {
	err := c.do(http.MethodDelete, fmt.Sprintf("/cart/item/%d", productID), nil, nil)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			resynced, ferr := c.FetchCart()
			if ferr != nil {
				return nil, err
			}
			return resynced, err
		}
	}
	return c.FetchCart()
}

// ClearCart empties the server cart. Called explicitly after an order is
// placed; order creation itself never clears the cart.
func (c *Client) ClearCart() error {
	return c.do(http.MethodDelete, "/cart", nil, nil)
}
