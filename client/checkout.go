package client

import (
	"errors"
	"net/http"
	"time"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
	"github.com/AngelShahi/Susankyabazzar-sub000/pricing"
)

// CheckoutStep is one screen of the linear checkout wizard. Steps advance
// forward only; the single automatic backward transition is the redirect to
// the shipping step when the address precondition fails.
type CheckoutStep int

const (
	StepShipping CheckoutStep = iota + 1
	StepPlaceOrder
	StepConfirmation
)

// ErrShippingRequired signals that the wizard was sent back to the shipping
// step because the cart holds no confirmed shipping address.
var ErrShippingRequired = errors.New("shipping address is required")

var errMissingShippingFields = errors.New("all shipping address fields are required")

// Checkout drives the three-step checkout flow: shipping address and payment
// method, order review and placement, then the read-only confirmation.
type Checkout struct {
	client *Client
	step   CheckoutStep
	cart   *Cart
	order  *models.Order
}

// NewCheckout starts a checkout at the shipping step.
func (c *Client) NewCheckout() *Checkout {
	return &Checkout{client: c, step: StepShipping}
}

// Step returns the wizard's current step.
func (ck *Checkout) Step() CheckoutStep {
	return ck.step
}

// Cart returns the last server-confirmed cart the wizard is working from.
func (ck *Checkout) Cart() *Cart {
	return ck.cart
}

// Order returns the created order once the wizard reached confirmation.
func (ck *Checkout) Order() *models.Order {
	return ck.order
}

// orderPayload is the submission body: a frozen snapshot of every line, the
// confirmed address and method, the aggregates verbatim from cart state, and
// the locally computed savings.
type orderPayload struct {
	OrderItems      []orderLinePayload     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	TotalPrice      float64                `json:"totalPrice"`
	TotalSavings    float64                `json:"totalSavings"`
}

type orderLinePayload struct {
	ProductID uint            `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     float64         `json:"price"`
	Qty       int             `json:"qty"`
	Discount  models.Discount `json:"discount"` // zeroed object when undiscounted
}

// SubmitShipping persists the address and payment method, then refetches the
// cart before advancing. The refetch is a deliberate barrier: the next step
// must read server-confirmed values, not optimistic local ones.
func (ck *Checkout) SubmitShipping(addr models.ShippingAddress, method models.PaymentMethod) error {
	if addr.Address == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return errMissingShippingFields
	}
	if _, err := models.ParsePaymentMethod(string(method)); err != nil {
		return err
	}

	if err := ck.client.do(http.MethodPut, "/cart/shipping", addr, nil); err != nil {
		return err
	}
	payment := map[string]string{"paymentMethod": string(method)}
	if err := ck.client.do(http.MethodPut, "/cart/payment", payment, nil); err != nil {
		return err
	}

	cart, err := ck.client.FetchCart()
	if err != nil {
		return err
	}
	ck.cart = cart
	ck.step = StepPlaceOrder
	return nil
}

// PlaceOrder submits the order. If the shipping precondition does not hold
// the wizard redirects back to the shipping step without issuing a request.
// On success the wizard advances to confirmation and the server cart is
// cleared with its own explicit call; a clear failure is surfaced alongside
// the created order but never re-opens the placement step. On placement
// failure the cart is left untouched so the customer can retry.
func (ck *Checkout) PlaceOrder() (*models.Order, error) {
	// Past confirmation the order already exists; resubmitting the same
	// wizard must not place it twice.
	if ck.step == StepConfirmation && ck.order != nil {
		return ck.order, nil
	}
	if ck.cart == nil || ck.cart.ShippingAddress.Address == "" {
		ck.step = StepShipping
		return nil, ErrShippingRequired
	}

	now := time.Now()
	payload := orderPayload{
		ShippingAddress: ck.cart.ShippingAddress,
		PaymentMethod:   ck.cart.PaymentMethod,
		ItemsPrice:      ck.cart.ItemsPrice,
		ShippingPrice:   ck.cart.ShippingPrice,
		TaxPrice:        ck.cart.TaxPrice,
		TotalPrice:      ck.cart.TotalPrice,
		TotalSavings:    pricing.TotalSavings(ck.cart.CartItems, now),
	}
	for _, item := range ck.cart.CartItems {
		payload.OrderItems = append(payload.OrderItems, orderLinePayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Qty:       item.Qty,
			Discount:  item.Discount,
		})
	}

	var order models.Order
	if err := ck.client.do(http.MethodPost, "/orders", payload, &order); err != nil {
		return nil, err
	}

	// The order exists from here on, so the wizard advances before anything
	// else; staying on the placement step would make a retry submit a
	// duplicate order.
	ck.order = &order
	ck.step = StepConfirmation

	// Clearing the cart is a separate call; order creation does not imply it.
	if err := ck.client.ClearCart(); err != nil {
		return &order, err
	}
	return &order, nil
}
