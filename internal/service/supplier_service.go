package service

import (
	"context"
	"fmt"

	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"
	"coffee-pos/internal/validation"

	"github.com/rs/zerolog"
)

type supplierService struct {
	supplierRepo repository.SupplierRepository
	logger       zerolog.Logger
}

// NewSupplierService creates a new supplier service.
func NewSupplierService(supplierRepo repository.SupplierRepository, logger zerolog.Logger) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		logger:       logger.With().Str("service", "supplier").Logger(),
	}
}

func (s *supplierService) List(ctx context.Context, params model.ListParams) ([]model.Supplier, *model.PageMeta, error) {
	params.Normalize()

	suppliers, total, err := s.supplierRepo.List(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, model.NewPageMeta(params, total), nil
}

func (s *supplierService) GetByID(ctx context.Context, id int64) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if supplier == nil {
		return nil, model.ErrSupplierNotFound
	}
	return supplier, nil
}

func (s *supplierService) Create(ctx context.Context, input *model.SupplierInput) (*model.Supplier, error) {
	if err := prepareSupplier(input); err != nil {
		return nil, err
	}

	supplier, err := s.supplierRepo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("supplier_id", supplier.ID).Msg("supplier created")
	return supplier, nil
}

func (s *supplierService) Update(ctx context.Context, id int64, input *model.SupplierInput) (*model.Supplier, error) {
	if err := prepareSupplier(input); err != nil {
		return nil, err
	}

	supplier, err := s.supplierRepo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, model.ErrSupplierNotFound
	}
	return supplier, nil
}

func (s *supplierService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !model.ValidActiveStatus(status) {
		return model.ErrInvalidStatus.Withf("Status must be active or inactive")
	}

	ok, err := s.supplierRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrSupplierNotFound
	}
	return nil
}

func (s *supplierService) Delete(ctx context.Context, id int64) error {
	ok, err := s.supplierRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrSupplierNotFound
	}

	s.logger.Info().Int64("supplier_id", id).Msg("supplier deleted")
	return nil
}

func prepareSupplier(input *model.SupplierInput) error {
	if input == nil {
		return model.ErrValidation.Withf("request body is required")
	}
	if err := validation.Struct(input); err != nil {
		return err
	}
	if input.Status == "" {
		input.Status = model.StatusActive
	}
	return nil
}
