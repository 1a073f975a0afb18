package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Image       string         `gorm:"not null" json:"image"`
	Price       float64        `gorm:"not null" json:"price"` // effective unit price (already discounted when a discount is active)
	Stock       int            `json:"quantity"`
	Discount    Discount       `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
