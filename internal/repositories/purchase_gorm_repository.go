package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storefront/internal/models"
)

// PurchaseRepository defines the interface for purchase data access.
type PurchaseRepository interface {
	Purchase(ctx context.Context, userID, productID uint, at time.Time) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Purchase, error)
}

// GORMPurchaseRepository is a GORM implementation of PurchaseRepository.
type GORMPurchaseRepository struct {
	db *gorm.DB
}

// NewGORMPurchaseRepository creates a new instance of GORMPurchaseRepository.
func NewGORMPurchaseRepository(db *gorm.DB) *GORMPurchaseRepository {
	return &GORMPurchaseRepository{
		db: db,
	}
}

// Purchase takes one unit of a product out of stock and records the purchase
// in a single transaction. The decrement is conditional on stock being
// positive, so the row lock taken by the UPDATE is also the stock check and
// concurrent buyers can never drive stock below zero. The returned purchase
// carries the product as it is after the decrement.
func (r *GORMPurchaseRepository) Purchase(ctx context.Context, userID, productID uint, at time.Time) (*models.Purchase, error) {
	var purchase models.Purchase

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock > 0", productID).
			UpdateColumn("stock", gorm.Expr("stock - ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to reserve stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %d: %w", productID, ErrProductUnavailable)
		}

		purchase = models.Purchase{
			UserID:       userID,
			ProductID:    productID,
			PurchaseTime: at,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return fmt.Errorf("failed to reload product %d: %w", productID, err)
		}
		purchase.Product = &product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListByUser returns a user's purchases, newest first.
func (r *GORMPurchaseRepository) ListByUser(ctx context.Context, userID uint) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("purchase_time DESC, id DESC").
		Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases for user %d: %w", userID, err)
	}
	return purchases, nil
}
