package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// ProductHandler handles HTTP requests for the catalogue.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the product routes behind requireAuth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/search", requireAuth, h.HandleSearch)
	router.Get("/products/:id", requireAuth, h.HandleGetProduct)
}

// HandleSearch filters the catalogue by q, category, min_price and max_price.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	filter := models.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	}

	var err error
	if filter.MinPrice, err = queryPrice(c, "min_price"); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid price filter")
	}
	if filter.MaxPrice, err = queryPrice(c, "max_price"); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid price filter")
	}

	products, err := h.service.Search(c.UserContext(), filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			return fail(c, fiber.StatusBadRequest, "Invalid price filter")
		}
		log.Error().Err(err).Str("q", filter.Query).Msg("Search error")
		return fail(c, fiber.StatusInternalServerError, "Search failed")
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}

	product, err := h.service.GetProduct(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		log.Error().Err(err).Int("product_id", id).Msg("Failed to load product")
		return fail(c, fiber.StatusInternalServerError, "Failed to load product")
	}
	return c.JSON(product)
}

// queryPrice returns nil when the parameter is absent.
func queryPrice(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
