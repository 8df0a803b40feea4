package service

import (
	"context"
	"fmt"

	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"
	"coffee-pos/internal/validation"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service. productRepo may be the
// cached repository.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves a page of products.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, *model.PageMeta, error) {
	if filter.Status != "" && !model.ValidActiveStatus(filter.Status) {
		return nil, nil, model.ErrInvalidStatus.Withf("Unknown status %q", filter.Status)
	}
	filter.Normalize()

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", filter.Page).
			Int("limit", filter.Limit).
			Msg("failed to list products")
		return nil, nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Msg("retrieved products")

	return products, model.NewPageMeta(filter.ListParams, total), nil
}

// GetByID retrieves a single product with its recipe.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	recipe, err := s.productRepo.ListRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	product.Recipe = recipe

	return product, nil
}

func (s *productService) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	if err := s.prepare(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error) {
	if err := s.prepare(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	s.logger.Info().Int64("product_id", id).Msg("product updated")
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	ok, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrProductNotFound
	}

	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func (s *productService) GetRecipe(ctx context.Context, productID int64) ([]model.RecipeEntry, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return s.productRepo.ListRecipe(ctx, productID)
}

func (s *productService) ReplaceRecipe(ctx context.Context, productID int64, input *model.RecipeInput) ([]model.RecipeEntry, error) {
	if input == nil {
		input = &model.RecipeInput{}
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkRecipe(input.Items); err != nil {
		return nil, err
	}

	ok, err := s.productRepo.ReplaceRecipe(ctx, productID, input.Items)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrProductNotFound
	}

	s.logger.Info().
		Int64("product_id", productID).
		Int("entries", len(input.Items)).
		Msg("recipe replaced")

	return s.productRepo.ListRecipe(ctx, productID)
}

// prepare validates a product payload and fills defaults.
func (s *productService) prepare(input *model.ProductInput) error {
	if input == nil {
		return model.ErrValidation.Withf("request body is required")
	}
	if err := validation.Struct(input); err != nil {
		return err
	}
	if input.Status == "" {
		input.Status = model.StatusActive
	}
	return checkRecipe(input.Recipe)
}

// checkRecipe rejects a recipe that lists the same ingredient twice.
func checkRecipe(entries []model.RecipeEntry) error {
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if seen[e.IngredientID] {
			return model.ErrValidation.Withf("ingredient %d appears more than once in the recipe", e.IngredientID)
		}
		seen[e.IngredientID] = true
	}
	return nil
}
