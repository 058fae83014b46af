package service

import (
	"context"
	"fmt"
	"strings"

	"order-desk/internal/model"
	"order-desk/internal/pricing"
	"order-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return newProductService(productRepo, logger)
}

func newProductService(productRepo repository.ProductRepository, logger zerolog.Logger) *productService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// priceItems snapshots product names and current prices into order items,
// keeping the request order. Later price changes never reach placed orders.
func (s *productService) priceItems(ctx context.Context, reqItems []model.OrderItemRequest) ([]model.OrderItem, error) {
	ids := make([]string, 0, len(reqItems))
	seen := make(map[string]struct{}, len(reqItems))
	for _, item := range reqItems {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to retrieve products")
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, prod := range products {
		byID[prod.ID] = prod
	}

	items := make([]model.OrderItem, len(reqItems))
	for i, item := range reqItems {
		prod, ok := byID[item.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", item.ProductID).Msg("unknown product in order")
			return nil, model.ErrProductNotFound
		}
		items[i] = model.OrderItem{
			ID:          uuid.New(),
			Position:    i,
			ProductID:   prod.ID,
			ProductName: prod.Name,
			Quantity:    item.Quantity,
			UnitPrice:   prod.Price,
			Subtotal:    pricing.LineSubtotal(item.Quantity, prod.Price),
		}
	}

	return items, nil
}
