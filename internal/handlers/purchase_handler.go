package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// PurchaseHandler handles HTTP requests for purchases.
type PurchaseHandler struct {
	service *services.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(service *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// RegisterRoutes registers the purchase routes behind requireAuth.
func (h *PurchaseHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Post("/purchase", requireAuth, h.HandlePurchase)
	router.Get("/purchases", requireAuth, h.HandleHistory)
}

// PurchaseRequest is the body of /purchase.
type PurchaseRequest struct {
	ProductID uint `json:"product_id"`
}

// HandlePurchase buys one unit of a product for the caller.
func (h *PurchaseHandler) HandlePurchase(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ProductID == 0 {
		return fail(c, fiber.StatusBadRequest, "Missing product ID")
	}

	purchase, err := h.service.Purchase(c.UserContext(), userID, req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrProductUnavailable) {
			return fail(c, fiber.StatusBadRequest, "Product not available")
		}
		log.Error().Err(err).Uint("user_id", userID).Uint("product_id", req.ProductID).Msg("Purchase error")
		return fail(c, fiber.StatusInternalServerError, "Purchase failed")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Purchase successful",
		"purchase": purchase,
	})
}

// HandleHistory lists the caller's purchases, newest first.
func (h *PurchaseHandler) HandleHistory(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}

	purchases, err := h.service.History(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("Purchase history error")
		return fail(c, fiber.StatusInternalServerError, "Failed to retrieve purchase history")
	}
	return c.JSON(purchases)
}
