package service

import (
	"context"
	"fmt"
	"strings"

	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"
	"coffee-pos/internal/validation"

	"github.com/rs/zerolog"
)

type promotionService struct {
	promotionRepo repository.PromotionRepository
	logger        zerolog.Logger
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(promotionRepo repository.PromotionRepository, logger zerolog.Logger) PromotionService {
	return &promotionService{
		promotionRepo: promotionRepo,
		logger:        logger.With().Str("service", "promotion").Logger(),
	}
}

func (s *promotionService) List(ctx context.Context, params model.ListParams) ([]model.Promotion, *model.PageMeta, error) {
	params.Normalize()

	promotions, total, err := s.promotionRepo.List(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	return promotions, model.NewPageMeta(params, total), nil
}

func (s *promotionService) GetByID(ctx context.Context, id int64) (*model.Promotion, error) {
	p, err := s.promotionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if p == nil {
		return nil, model.ErrPromotionNotFound
	}
	return p, nil
}

func (s *promotionService) Create(ctx context.Context, input *model.PromotionInput) (*model.Promotion, error) {
	p, err := promotionFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.promotionRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("promotion_id", p.ID).Str("code", p.Code).Msg("promotion created")
	return p, nil
}

func (s *promotionService) Update(ctx context.Context, id int64, input *model.PromotionInput) (*model.Promotion, error) {
	p, err := promotionFromInput(input)
	if err != nil {
		return nil, err
	}
	p.ID = id

	ok, err := s.promotionRepo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPromotionNotFound
	}
	return p, nil
}

func (s *promotionService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !model.ValidActiveStatus(status) {
		return model.ErrInvalidStatus.Withf("Status must be active or inactive")
	}

	ok, err := s.promotionRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPromotionNotFound
	}
	return nil
}

func (s *promotionService) Delete(ctx context.Context, id int64) error {
	ok, err := s.promotionRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPromotionNotFound
	}

	s.logger.Info().Int64("promotion_id", id).Msg("promotion deleted")
	return nil
}

// promotionFromInput validates a payload, normalises the type alias and
// defaults the status to active.
func promotionFromInput(input *model.PromotionInput) (*model.Promotion, error) {
	if input == nil {
		return nil, model.ErrValidation.Withf("request body is required")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, model.ErrValidation.Withf("code is required")
	}

	promoType, ok := model.NormalizePromotionType(input.Type)
	if !ok {
		return nil, model.ErrInvalidPromotionType
	}
	if !model.ValidPromotionValue(promoType, input.Value) {
		return nil, model.ErrValidation.Withf("value must be at least 0, and at most 100 for a percent promotion")
	}
	if input.MinSpend != nil && input.MinSpend.IsNegative() {
		return nil, model.ErrValidation.Withf("min_spend must be at least 0")
	}
	if input.StartAt != nil && input.EndAt != nil && input.EndAt.Before(*input.StartAt) {
		return nil, model.ErrValidation.Withf("end_at must not be before start_at")
	}

	status := input.Status
	if status == "" {
		status = model.StatusActive
	}

	return &model.Promotion{
		Code:     code,
		Type:     promoType,
		Value:    input.Value,
		MinSpend: input.MinSpend,
		StartAt:  input.StartAt,
		EndAt:    input.EndAt,
		Status:   status,
	}, nil
}
