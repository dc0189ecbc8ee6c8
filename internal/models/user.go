package models

// User represents a registered customer.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"uniqueIndex;not null" validate:"required,max=100"`
	Password string `json:"-" gorm:"not null" validate:"required"` // bcrypt hash, never serialised
}
