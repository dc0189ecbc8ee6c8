// Package events holds consumers for messages published by the storefront.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"storefront/internal/models"
)

// PurchaseLogger returns a handler that records each purchase event and
// warns once a product's remaining stock is at or below lowStock.
func PurchaseLogger(lowStock int) func(body []byte) error {
	return func(body []byte) error {
		var event models.PurchaseEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to decode purchase event: %w", err)
		}
		if event.PurchaseID == 0 || event.ProductID == 0 {
			return fmt.Errorf("purchase event is missing ids: %s", body)
		}

		log.Info().
			Uint("purchase_id", event.PurchaseID).
			Uint("user_id", event.UserID).
			Uint("product_id", event.ProductID).
			Str("product", event.ProductName).
			Float64("price", event.Price).
			Time("purchase_time", event.PurchaseTime).
			Msg("Purchase event received")

		if event.RemainingStock <= lowStock {
			log.Warn().
				Uint("product_id", event.ProductID).
				Str("product", event.ProductName).
				Int("remaining_stock", event.RemainingStock).
				Msg("Product stock is running low")
		}
		return nil
	}
}
