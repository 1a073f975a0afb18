package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func emptyCart() Cart {
	return Cart{CartItems: []models.CartItem{}}
}

func TestChangeQuantityGuardExclusivity(t *testing.T) {
	var posts int32
	received := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		once.Do(func() { close(received) })
		<-release
		writeJSON(w, http.StatusOK, emptyCart())
	})
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, emptyCart())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "token")
	item := models.CartItem{ProductID: 5, Stock: 10, Qty: 1}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstApplied bool
	go func() {
		defer wg.Done()
		_, firstApplied, _ = c.ChangeQuantity(item, "2")
	}()

	// Wait until the first mutation is on the wire, then try again: the
	// second call must be dropped, not queued.
	<-received
	_, applied, err := c.ChangeQuantity(item, "3")
	assert.False(t, applied)
	assert.NoError(t, err)

	close(release)
	wg.Wait()

	assert.True(t, firstApplied)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts), "exactly one outbound request")

	// The key is released once the first request settles.
	_, applied, err = c.ChangeQuantity(item, "3")
	assert.True(t, applied)
	assert.NoError(t, err)
}

func TestChangeQuantityClamp(t *testing.T) {
	var gotQty int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cart", func(w http.ResponseWriter, r *http.Request) {
		var payload cartLinePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		atomic.StoreInt64(&gotQty, int64(payload.Qty))
		writeJSON(w, http.StatusOK, emptyCart())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "token")

	// Stock below the cap wins.
	_, applied, err := c.ChangeQuantity(models.CartItem{ProductID: 1, Stock: 10}, "50")
	require.NoError(t, err)
	require.True(t, applied)
	assert.EqualValues(t, 10, atomic.LoadInt64(&gotQty))

	// The fixed per-line cap wins over plentiful stock.
	_, applied, err = c.ChangeQuantity(models.CartItem{ProductID: 2, Stock: 100}, "50")
	require.NoError(t, err)
	require.True(t, applied)
	assert.EqualValues(t, 20, atomic.LoadInt64(&gotQty))
}

func TestChangeQuantityIgnoresInvalidInput(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		writeJSON(w, http.StatusOK, emptyCart())
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	item := models.CartItem{ProductID: 3, Stock: 5}

	for _, requested := range []string{"abc", "", "0", "-3", "1.5"} {
		cart, applied, err := c.ChangeQuantity(item, requested)
		assert.Nil(t, cart, "input %q", requested)
		assert.False(t, applied, "input %q", requested)
		assert.NoError(t, err, "input %q", requested)
	}
	assert.Zero(t, atomic.LoadInt32(&requests), "invalid input must not reach the network")
}

func TestChangeQuantityRefetchesOnFailure(t *testing.T) {
	var refetches int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refetches, 1)
		writeJSON(w, http.StatusOK, Cart{CartItems: []models.CartItem{{ProductID: 4, Qty: 2}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "token")
	cart, applied, err := c.ChangeQuantity(models.CartItem{ProductID: 4, Stock: 5}, "3")

	assert.True(t, applied)
	assert.EqualError(t, err, "boom")
	require.NotNil(t, cart, "failure recovery is a re-sync, not a patch")
	assert.Equal(t, 2, cart.CartItems[0].Qty)
	assert.EqualValues(t, 1, atomic.LoadInt32(&refetches))
}

func TestRemoveItemTreatsNotFoundAsSettled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /cart/item/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Cart item not found"})
	})
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, emptyCart())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "token")
	cart, err := c.RemoveItem(9)
	assert.NoError(t, err, "a concurrent remove already settled this line")
	assert.NotNil(t, cart)
}

func TestSubmitShippingAwaitsRefetch(t *testing.T) {
	var mu sync.Mutex
	stored := Cart{CartItems: []models.CartItem{}}

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /cart/shipping", func(w http.ResponseWriter, r *http.Request) {
		var addr models.ShippingAddress
		require.NoError(t, json.NewDecoder(r.Body).Decode(&addr))
		mu.Lock()
		stored.ShippingAddress = addr
		mu.Unlock()
		writeJSON(w, http.StatusOK, stored)
	})
	mux.HandleFunc("PUT /cart/payment", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stored.PaymentMethod = models.PaymentQR
		mu.Unlock()
		writeJSON(w, http.StatusOK, stored)
	})
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, stored)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ck := New(srv.URL, "token").NewCheckout()
	assert.Equal(t, StepShipping, ck.Step())

	addr := models.ShippingAddress{Address: "Thamel", City: "Kathmandu", PostalCode: "44600", Country: "Nepal"}
	require.NoError(t, ck.SubmitShipping(addr, models.PaymentQR))

	// The step advanced only after the refetch, so the wizard holds
	// server-confirmed values.
	assert.Equal(t, StepPlaceOrder, ck.Step())
	require.NotNil(t, ck.Cart())
	assert.Equal(t, "Thamel", ck.Cart().ShippingAddress.Address)
	assert.Equal(t, models.PaymentQR, ck.Cart().PaymentMethod)
}

func TestSubmitShippingValidatesLocally(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	ck := New(srv.URL, "token").NewCheckout()
	addr := models.ShippingAddress{Address: "Thamel", City: "", PostalCode: "44600", Country: "Nepal"}
	assert.Error(t, ck.SubmitShipping(addr, models.PaymentQR))
	assert.Error(t, ck.SubmitShipping(models.ShippingAddress{Address: "Thamel", City: "Kathmandu", PostalCode: "44600", Country: "Nepal"}, "PayPal"))
	assert.Zero(t, atomic.LoadInt32(&requests))
}

func TestPlaceOrderRedirectsWithoutAddress(t *testing.T) {
	var orderPosts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&orderPosts, 1)
	}))
	defer srv.Close()

	ck := New(srv.URL, "token").NewCheckout()
	ck.cart = &Cart{} // reached the review step with no confirmed address
	ck.step = StepPlaceOrder

	order, err := ck.PlaceOrder()
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrShippingRequired)
	assert.Equal(t, StepShipping, ck.Step(), "wizard redirects back to shipping")
	assert.Zero(t, atomic.LoadInt32(&orderPosts), "no request is issued")
}

func TestPlaceOrderClearsCartAndAdvances(t *testing.T) {
	var clears int32
	now := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var payload orderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.OrderItems, 1)
		assert.Equal(t, "Khukuri", payload.OrderItems[0].Name)
		assert.InDelta(t, 40.0, payload.TotalSavings, 1e-9)
		writeJSON(w, http.StatusCreated, models.Order{ID: 7, TotalPrice: payload.TotalPrice})
	})
	mux.HandleFunc("DELETE /cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&clears, 1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ck := New(srv.URL, "token").NewCheckout()
	ck.step = StepPlaceOrder
	ck.cart = &Cart{
		CartItems: []models.CartItem{{
			ProductID: 1,
			Name:      "Khukuri",
			Price:     80,
			Qty:       2,
			Discount:  models.Discount{Percentage: 20, Active: true, EndDate: now.Add(24 * time.Hour)},
		}},
		ShippingAddress: models.ShippingAddress{Address: "Thamel", City: "Kathmandu", PostalCode: "44600", Country: "Nepal"},
		PaymentMethod:   models.PaymentCashOnDelivery,
		ItemsPrice:      160,
		TotalPrice:      280.8,
	}

	order, err := ck.PlaceOrder()
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.EqualValues(t, 7, order.ID)
	assert.Equal(t, StepConfirmation, ck.Step())
	assert.EqualValues(t, 1, atomic.LoadInt32(&clears), "cart cleared by its own explicit call")
}

func TestPlaceOrderAdvancesEvenWhenClearFails(t *testing.T) {
	var placements int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&placements, 1)
		writeJSON(w, http.StatusCreated, models.Order{ID: 11})
	})
	mux.HandleFunc("DELETE /cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cart service unavailable"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ck := New(srv.URL, "token").NewCheckout()
	ck.step = StepPlaceOrder
	ck.cart = &Cart{
		CartItems:       []models.CartItem{{ProductID: 1, Name: "Khukuri", Price: 80, Qty: 2}},
		ShippingAddress: models.ShippingAddress{Address: "Thamel", City: "Kathmandu", PostalCode: "44600", Country: "Nepal"},
	}

	order, err := ck.PlaceOrder()
	assert.EqualError(t, err, "cart service unavailable")
	require.NotNil(t, order, "the order was created; the clear failure must not hide it")
	assert.EqualValues(t, 11, order.ID)
	assert.Equal(t, StepConfirmation, ck.Step())
	require.NotNil(t, ck.Order())
	assert.EqualValues(t, 11, ck.Order().ID)

	// A second submission from the stale screen returns the existing order
	// instead of placing a duplicate.
	again, err := ck.PlaceOrder()
	require.NoError(t, err)
	assert.Same(t, ck.Order(), again)
	assert.EqualValues(t, 1, atomic.LoadInt32(&placements), "exactly one order placed")
}

func TestPlaceOrderKeepsCartOnFailure(t *testing.T) {
	var clears int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient stock for product: Khukuri"})
	})
	mux.HandleFunc("DELETE /cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&clears, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ck := New(srv.URL, "token").NewCheckout()
	ck.step = StepPlaceOrder
	ck.cart = &Cart{
		CartItems:       []models.CartItem{{ProductID: 1, Name: "Khukuri", Price: 80, Qty: 2}},
		ShippingAddress: models.ShippingAddress{Address: "Thamel"},
	}

	order, err := ck.PlaceOrder()
	assert.Nil(t, order)
	assert.EqualError(t, err, "insufficient stock for product: Khukuri")
	assert.Equal(t, StepPlaceOrder, ck.Step())
	assert.Zero(t, atomic.LoadInt32(&clears), "cart is not cleared when placement fails")
}

func TestCancelOrderRequiresReason(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	order, err := c.CancelOrder("5", "   ")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, models.ErrReasonRequired)
	assert.Zero(t, atomic.LoadInt32(&requests), "rejected client-side, no network call")
}

func TestErrorMessagePreference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	})
	mux.HandleFunc("GET /orders/10", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "token")

	_, err := c.GetOrder("9")
	assert.EqualError(t, err, "order not found")

	_, err = c.GetOrder("10")
	assert.EqualError(t, err, "request failed with status 500")
}

func TestInitializeKhaltiPayment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders/5/khalti/initialize", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"payment": map[string]string{"payment_url": "https://pay.khalti.com/?pidx=abc"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "token")
	url, err := c.InitializeKhaltiPayment("5", "https://shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.khalti.com/?pidx=abc", url)
}
