package models

import (
	"errors"
	"time"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
	PaymentQR             PaymentMethod = "QRPayment"
	PaymentKhalti         PaymentMethod = "Khalti"
)

// ParsePaymentMethod maps a request string to a known payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCashOnDelivery, PaymentQR, PaymentKhalti:
		return PaymentMethod(s), nil
	default:
		return "", errors.New("invalid payment method")
	}
}

// ShippingAddress is embedded in both Cart and Order.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Cart struct {
	CartID          uint            `gorm:"primaryKey" json:"-"`
	UserID          string          `gorm:"uniqueIndex" json:"user"` // one cart per user
	Items           []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"cartItems"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"type:VARCHAR(20)" json:"paymentMethod"`
	CreatedAt       time.Time       `json:"-"`
	UpdatedAt       time.Time       `json:"-"`
}

// CartItem carries a snapshot of the product at the time it was added: name,
// image, effective price, discount window and stock ceiling. Qty is the only
// field the customer mutates.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	CartID    uint      `gorm:"index" json:"-"`
	ProductID uint      `json:"product"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Qty       int       `json:"qty"`
	Stock     int       `json:"quantity"` // stock ceiling at last fetch
	Discount  Discount  `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
	AddedAt   time.Time `json:"-"`
}
