package models

// Product represents an item in the catalogue.
type Product struct {
	ID          uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" gorm:"not null" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"omitempty,max=2000"`
	Price       float64 `json:"price" gorm:"type:decimal(10,2);not null" validate:"gte=0"`
	Stock       int     `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	Category    string  `json:"category" gorm:"index" validate:"omitempty,max=100"`
}

// ProductFilter narrows a product search. A nil bound is unbounded.
type ProductFilter struct {
	Query    string
	Category string
	MinPrice *float64
	MaxPrice *float64
}
