package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// EventPublisher delivers purchase events to interested consumers.
type EventPublisher interface {
	PublishPurchaseCreated(event models.PurchaseEvent) error
}

// PurchaseService handles business logic related to purchases.
type PurchaseService struct {
	repo      repositories.PurchaseRepository
	publisher EventPublisher
}

// NewPurchaseService creates a new PurchaseService. publisher may be nil.
func NewPurchaseService(repo repositories.PurchaseRepository, publisher EventPublisher) *PurchaseService {
	return &PurchaseService{
		repo:      repo,
		publisher: publisher,
	}
}

// Purchase buys one unit of a product for a user. The event is published only
// after the transaction has committed; a failed publish is logged and does
// not undo the purchase.
func (s *PurchaseService) Purchase(ctx context.Context, userID, productID uint) (*models.Purchase, error) {
	purchase, err := s.repo.Purchase(ctx, userID, productID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("purchase_id", purchase.ID).
		Uint("user_id", userID).
		Uint("product_id", productID).
		Msg("Purchase recorded")

	if s.publisher == nil {
		return purchase, nil
	}

	event := models.PurchaseEvent{
		PurchaseID:   purchase.ID,
		UserID:       purchase.UserID,
		ProductID:    purchase.ProductID,
		PurchaseTime: purchase.PurchaseTime,
	}
	if purchase.Product != nil {
		event.ProductName = purchase.Product.Name
		event.Price = purchase.Product.Price
		event.RemainingStock = purchase.Product.Stock
	}
	if err := s.publisher.PublishPurchaseCreated(event); err != nil {
		log.Warn().Err(err).Uint("purchase_id", purchase.ID).Msg("Failed to publish purchase event")
	}
	return purchase, nil
}

// History returns a user's purchases, newest first.
func (s *PurchaseService) History(ctx context.Context, userID uint) ([]models.Purchase, error) {
	purchases, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	return purchases, nil
}
