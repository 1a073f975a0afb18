package models

import "time"

type User struct {
	ID        string    `gorm:"primaryKey" json:"_id"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"isAdmin"`
	Cart      Cart      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Orders    []Order   `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
