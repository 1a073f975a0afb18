package models

import (
	"errors"
	"strings"
	"time"
)

// Lifecycle guard errors. Handlers map these to 4xx responses; they are also
// what keeps a cancelled order terminal.
var (
	ErrOrderCancelled   = errors.New("order has been cancelled")
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	ErrOrderNotPaid     = errors.New("order is not paid yet")
	ErrOrderDelivered   = errors.New("order is already delivered")
	ErrCancelPaidOrder  = errors.New("paid orders cannot be cancelled")
	ErrReasonRequired   = errors.New("cancellation reason is required")
	ErrProofNotQR       = errors.New("payment proof applies to QR payment orders only")
	ErrProofAlreadySet  = errors.New("payment proof has already been uploaded")
)

type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"_id"`
	OrderRef           string          `gorm:"uniqueIndex" json:"orderRef"`
	UserID             string          `gorm:"not null;index" json:"user"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	ShippingAddress    ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod      PaymentMethod   `gorm:"type:VARCHAR(20)" json:"paymentMethod"`
	ItemsPrice         float64         `json:"itemsPrice"`
	ShippingPrice      float64         `json:"shippingPrice"`
	TaxPrice           float64         `json:"taxPrice"`
	TotalPrice         float64         `json:"totalPrice"`
	TotalSavings       float64         `json:"totalSavings"`
	IsPaid             bool            `json:"isPaid"`
	IsDelivered        bool            `json:"isDelivered"`
	IsCancelled        bool            `json:"isCancelled"`
	PaidAt             *time.Time      `json:"paidAt,omitempty"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	PaymentProofImage  string          `json:"paymentProofImage,omitempty"`
	PaymentResult      string          `json:"paymentResult,omitempty"`
	PaymentToken       string          `json:"-"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// OrderItem is a frozen copy of a cart line at order time. Price and discount
// never change afterwards, even if the live product's discount does.
type OrderItem struct {
	ID        uint     `gorm:"primaryKey" json:"_id"`
	OrderID   uint     `gorm:"index" json:"-"`
	ProductID uint     `json:"product"`
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Price     float64  `json:"price"`
	Qty       int      `json:"qty"`
	Discount  Discount `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
}

// CanPay reports whether the admin may mark the order paid.
func (o *Order) CanPay() bool {
	return !o.IsPaid && !o.IsCancelled
}

// CanDeliver reports whether the admin may mark the order delivered.
func (o *Order) CanDeliver() bool {
	return o.IsPaid && !o.IsDelivered && !o.IsCancelled
}

// CanCancel reports whether cancellation is still available. Customers may not
// cancel a paid order; an admin reviewing a disputed Khalti payment passes
// allowPaid to override that.
func (o *Order) CanCancel(allowPaid bool) bool {
	if o.IsCancelled || o.IsDelivered {
		return false
	}
	return !o.IsPaid || allowPaid
}

// CanUploadProof reports whether a QR payment proof may still be attached.
func (o *Order) CanUploadProof() bool {
	return o.PaymentMethod == PaymentQR && !o.IsPaid && !o.IsCancelled && o.PaymentProofImage == ""
}

// Pay marks the order paid. Cancellation is terminal.
func (o *Order) Pay(now time.Time) error {
	if o.IsCancelled {
		return ErrOrderCancelled
	}
	if o.IsPaid {
		return ErrOrderAlreadyPaid
	}
	o.IsPaid = true
	o.PaidAt = &now
	return nil
}

// Deliver marks the order delivered. Requires payment first.
func (o *Order) Deliver(now time.Time) error {
	if o.IsCancelled {
		return ErrOrderCancelled
	}
	if !o.IsPaid {
		return ErrOrderNotPaid
	}
	if o.IsDelivered {
		return ErrOrderDelivered
	}
	o.IsDelivered = true
	o.DeliveredAt = &now
	return nil
}

// Cancel moves the order to its terminal cancelled state. A non-empty reason
// is mandatory.
func (o *Order) Cancel(reason string, now time.Time, allowPaid bool) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if o.IsCancelled {
		return ErrOrderCancelled
	}
	if o.IsDelivered {
		return ErrOrderDelivered
	}
	if o.IsPaid && !allowPaid {
		return ErrCancelPaidOrder
	}
	o.IsCancelled = true
	o.CancelledAt = &now
	o.CancellationReason = strings.TrimSpace(reason)
	return nil
}

// AttachPaymentProof stores the uploaded proof image reference. It does not
// mark the order paid; the admin does that after review.
func (o *Order) AttachPaymentProof(imageURL string) error {
	if o.IsCancelled {
		return ErrOrderCancelled
	}
	if o.PaymentMethod != PaymentQR {
		return ErrProofNotQR
	}
	if o.IsPaid {
		return ErrOrderAlreadyPaid
	}
	if o.PaymentProofImage != "" {
		return ErrProofAlreadySet
	}
	o.PaymentProofImage = imageURL
	return nil
}
