package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ErrInvalidFilter is returned for price bounds that cannot match anything sensible.
var ErrInvalidFilter = errors.New("invalid price filter")

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo:     repo,
		validate: validator.New(),
	}
}

// Search returns the products matching filter. A -Inf lower bound or a +Inf
// upper bound is treated as no bound. Negative bounds are accepted.
func (s *ProductService) Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	if filter.MinPrice != nil && math.IsInf(*filter.MinPrice, -1) {
		filter.MinPrice = nil
	}
	if filter.MaxPrice != nil && math.IsInf(*filter.MaxPrice, 1) {
		filter.MaxPrice = nil
	}
	for _, bound := range []*float64{filter.MinPrice, filter.MaxPrice} {
		if bound != nil && (math.IsNaN(*bound) || math.IsInf(*bound, 0)) {
			return nil, fmt.Errorf("%w: bounds must be numbers", ErrInvalidFilter)
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("%w: min_price is greater than max_price", ErrInvalidFilter)
	}
	return s.repo.Search(ctx, filter)
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("invalid product: %w", err)
	}
	return s.repo.Create(ctx, product)
}

// SeedProducts stores products only when the catalogue is empty and reports
// how many were added.
func (s *ProductService) SeedProducts(ctx context.Context, products []models.Product) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int64("existing", count).Msg("Catalogue already populated; skipping seed")
		return 0, nil
	}

	for i := range products {
		if err := s.CreateProduct(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("failed to seed product %s: %w", products[i].Name, err)
		}
		log.Debug().Uint("id", products[i].ID).Str("name", products[i].Name).Msg("Seeded product")
	}
	return len(products), nil
}

// DefaultCatalogue is the sample data installed by the seed command.
func DefaultCatalogue() []models.Product {
	return []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: 1200.00, Stock: 10, Category: "electronics"},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: 75.00, Stock: 25, Category: "electronics"},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: 25.00, Stock: 50, Category: "electronics"},
		{Name: "Desk Lamp", Description: "LED lamp with adjustable arm", Price: 40.00, Stock: 15, Category: "home"},
		{Name: "Office Chair", Description: "Ergonomic office chair", Price: 250.00, Stock: 5, Category: "furniture"},
	}
}
