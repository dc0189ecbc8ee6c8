package models

import "time"

// Purchase records a single unit of a product bought by a user.
type Purchase struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	ProductID    uint      `json:"product_id" gorm:"not null;index"`
	PurchaseTime time.Time `json:"purchase_time" gorm:"not null"`

	User    *User    `json:"-" gorm:"foreignKey:UserID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// PurchaseEvent is published after a purchase has been committed.
type PurchaseEvent struct {
	PurchaseID     uint      `json:"purchase_id"`
	UserID         uint      `json:"user_id"`
	ProductID      uint      `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Price          float64   `json:"price"`
	RemainingStock int       `json:"remaining_stock"`
	PurchaseTime   time.Time `json:"purchase_time"`
}
