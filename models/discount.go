package models

import (
	"errors"
	"time"
)

// Discount is a time-bounded percentage reduction. It is embedded in a
// product and snapshotted into cart and order line items, so the price a
// customer saw is the price they pay even if the product's discount changes
// later.
type Discount struct {
	Name       string    `json:"name"`
	Percentage int       `json:"percentage"`
	Active     bool      `json:"active"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

// Validate checks the admin-facing constraints on a discount definition.
func (d Discount) Validate() error {
	if d.Percentage < 1 || d.Percentage > 100 {
		return errors.New("discount percentage must be between 1 and 100")
	}
	if !d.EndDate.IsZero() && !d.StartDate.IsZero() && !d.StartDate.Before(d.EndDate) {
		return errors.New("discount start date must be before end date")
	}
	return nil
}

// IsZero reports whether the discount is the empty snapshot stored for
// undiscounted line items.
func (d Discount) IsZero() bool {
	return d.Percentage == 0 && !d.Active && d.StartDate.IsZero() && d.EndDate.IsZero() && d.Name == ""
}
