package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coffee-pos/internal/config"
	"coffee-pos/internal/events"
	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"
	"coffee-pos/internal/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// inventoryService implements InventoryService.
type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	publisher     events.Publisher
	allowNegative bool
	now           clock
	logger        zerolog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	publisher events.Publisher,
	cfg config.InventoryConfig,
	logger zerolog.Logger,
) InventoryService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		publisher:     publisher,
		allowNegative: cfg.AllowNegativeStock,
		now:           time.Now,
		logger:        logger.With().Str("service", "inventory").Logger(),
	}
}

// Receive adds delivered quantities to stock and records receive movements.
func (s *inventoryService) Receive(ctx context.Context, req *model.ReceiveRequest) (movements []model.StockMovement, err error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.ErrNoItems
	}

	createdAt := s.now().UTC()
	if req.Date != "" {
		d, perr := time.Parse(dateLayout, req.Date)
		if perr != nil {
			return nil, model.ErrInvalidDate
		}
		createdAt = d
	}

	for i, item := range req.Items {
		if item.IngredientID <= 0 || !item.Qty.IsPositive() {
			return nil, model.ErrInvalidItem.Withf("Item %d needs an ingredient id and a positive quantity", i)
		}
		if item.PricePerUnit != nil && item.PricePerUnit.IsNegative() {
			return nil, model.ErrValidation.Withf("items[%d].price_per_unit must be at least 0", i)
		}
	}

	tx, err := s.inventoryRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to receive stock: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	movements = make([]model.StockMovement, 0, len(req.Items))
	for _, item := range req.Items {
		level, aerr := s.inventoryRepo.ApplyDelta(ctx, tx, item.IngredientID, item.Qty)
		if aerr != nil {
			err = aerr
			return nil, fmt.Errorf("failed to receive stock: %w", err)
		}
		if level == nil {
			err = model.ErrIngredientNotFound.Withf("Ingredient %d not found", item.IngredientID)
			return nil, err
		}

		if item.PricePerUnit != nil || req.SupplierID != nil {
			if err = s.inventoryRepo.UpdateCostAndSupplier(ctx, tx, item.IngredientID, item.PricePerUnit, req.SupplierID); err != nil {
				return nil, err
			}
		}

		ref, merr := json.Marshal(model.ReceiveRef{SupplierID: req.SupplierID, PricePerUnit: item.PricePerUnit})
		if merr != nil {
			err = merr
			return nil, fmt.Errorf("failed to encode movement reference: %w", err)
		}

		movements = append(movements, model.StockMovement{
			ID:             uuid.New(),
			IngredientID:   item.IngredientID,
			IngredientName: level.Name,
			Type:           model.MovementReceive,
			Quantity:       item.Qty,
			Ref:            ref,
			CreatedAt:      createdAt,
		})
	}

	if err = s.inventoryRepo.InsertMovements(ctx, tx, movements); err != nil {
		return nil, fmt.Errorf("failed to record stock movements: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to receive stock: %w", err)
	}

	s.logger.Info().Int("items", len(movements)).Msg("stock received")
	return movements, nil
}

// AdjustBatch applies signed corrections and records adjust movements.
func (s *inventoryService) AdjustBatch(ctx context.Context, req *model.AdjustRequest) (movements []model.StockMovement, err error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.ErrNoItems
	}
	for i, item := range req.Items {
		if item.IngredientID <= 0 || item.Qty.IsZero() {
			return nil, model.ErrInvalidItem.Withf("Item %d needs an ingredient id and a non-zero quantity", i)
		}
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = model.MovementAdjust
	}

	tx, err := s.inventoryRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	now := s.now().UTC()
	var low []model.StockLevel
	movements = make([]model.StockMovement, 0, len(req.Items))
	for _, item := range req.Items {
		level, aerr := s.inventoryRepo.ApplyDelta(ctx, tx, item.IngredientID, item.Qty)
		if aerr != nil {
			err = aerr
			return nil, fmt.Errorf("failed to adjust stock: %w", err)
		}
		if level == nil {
			err = model.ErrIngredientNotFound.Withf("Ingredient %d not found", item.IngredientID)
			return nil, err
		}
		if level.StockQty.IsNegative() && !s.allowNegative {
			err = model.ErrInsufficientStock.Withf("Not enough %s in stock", level.Name)
			return nil, err
		}
		if item.Qty.IsNegative() && level.BelowReorderPoint() {
			low = append(low, *level)
		}

		movements = append(movements, model.StockMovement{
			ID:             uuid.New(),
			IngredientID:   item.IngredientID,
			IngredientName: level.Name,
			Type:           model.MovementAdjust,
			Quantity:       item.Qty,
			Reason:         &reason,
			CreatedAt:      now,
		})
	}

	if err = s.inventoryRepo.InsertMovements(ctx, tx, movements); err != nil {
		return nil, fmt.Errorf("failed to record stock movements: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.logger.Info().Int("items", len(movements)).Str("reason", reason).Msg("stock adjusted")
	s.publishLowStock(ctx, low, model.MovementAdjust)
	return movements, nil
}

// Adjust changes one ingredient's stock while holding its row lock.
func (s *inventoryService) Adjust(ctx context.Context, id int64, req *model.AdjustmentRequest) (*model.AdjustmentResult, error) {
	if req == nil {
		return nil, model.ErrInvalidAdjustmentType
	}

	adjType := strings.ToLower(strings.TrimSpace(req.Type))
	switch adjType {
	case model.AdjustIncrease, model.AdjustDecrease, model.AdjustReceive:
		if !req.Amount.IsPositive() {
			return nil, model.ErrValidation.Withf("amount must be greater than 0")
		}
	case model.AdjustSet:
		if req.Amount.IsNegative() {
			return nil, model.ErrValidation.Withf("amount must be at least 0")
		}
	default:
		return nil, model.ErrInvalidAdjustmentType
	}
	if req.CostPerUnit != nil && req.CostPerUnit.IsNegative() {
		return nil, model.ErrValidation.Withf("cost_per_unit must be at least 0")
	}

	level, delta, err := s.applyAdjustment(ctx, id, adjType, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("ingredient_id", id).
		Str("type", adjType).
		Str("delta", delta.String()).
		Msg("ingredient stock adjusted")

	if delta.IsNegative() && level.BelowReorderPoint() {
		s.publishLowStock(ctx, []model.StockLevel{level}, model.MovementAdjust)
	}

	updated, err := s.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.AdjustmentResult{Ingredient: updated, Delta: delta}, nil
}

// applyAdjustment runs the locked read-modify-write of Adjust in one transaction.
func (s *inventoryService) applyAdjustment(ctx context.Context, id int64, adjType string, req *model.AdjustmentRequest) (level model.StockLevel, delta decimal.Decimal, err error) {
	tx, err := s.inventoryRepo.BeginTx(ctx)
	if err != nil {
		return level, delta, fmt.Errorf("failed to adjust stock: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	ing, err := s.inventoryRepo.LockForUpdate(ctx, tx, id)
	if err != nil {
		return level, delta, fmt.Errorf("failed to lock ingredient: %w", err)
	}
	if ing == nil {
		return level, delta, model.ErrIngredientNotFound
	}

	switch adjType {
	case model.AdjustIncrease, model.AdjustReceive:
		delta = req.Amount
	case model.AdjustDecrease:
		delta = req.Amount.Neg()
	case model.AdjustSet:
		delta = req.Amount.Sub(ing.StockQty)
	}

	newQty := ing.StockQty.Add(delta)
	if newQty.IsNegative() {
		return level, delta, model.ErrInsufficientStock.Withf("Only %s %s of %s in stock", ing.StockQty.String(), ing.Unit, ing.Name)
	}

	if !delta.IsZero() {
		if err = s.inventoryRepo.SetStock(ctx, tx, id, newQty); err != nil {
			return level, delta, fmt.Errorf("failed to set stock: %w", err)
		}

		movement, err := adjustmentMovement(id, adjType, delta, req, s.now().UTC())
		if err != nil {
			return level, delta, err
		}
		if err := s.inventoryRepo.InsertMovements(ctx, tx, []model.StockMovement{movement}); err != nil {
			return level, delta, fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	if req.CostPerUnit != nil || req.SupplierID != nil {
		if err = s.inventoryRepo.UpdateCostAndSupplier(ctx, tx, id, req.CostPerUnit, req.SupplierID); err != nil {
			return level, delta, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return level, delta, fmt.Errorf("failed to adjust stock: %w", err)
	}

	level = model.StockLevel{IngredientID: id, Name: ing.Name, StockQty: newQty, ReorderPoint: ing.ReorderPoint}
	return level, delta, nil
}

func adjustmentMovement(id int64, adjType string, delta decimal.Decimal, req *model.AdjustmentRequest, at time.Time) (model.StockMovement, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = adjType
	}

	m := model.StockMovement{
		ID:           uuid.New(),
		IngredientID: id,
		Type:         model.MovementAdjust,
		Quantity:     delta,
		Reason:       &reason,
		CreatedAt:    at,
	}

	if adjType == model.AdjustReceive {
		m.Type = model.MovementReceive
		ref, err := json.Marshal(model.ReceiveRef{SupplierID: req.SupplierID, PricePerUnit: req.CostPerUnit})
		if err != nil {
			return m, fmt.Errorf("failed to encode movement reference: %w", err)
		}
		m.Ref = ref
	}

	return m, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, ingredientID int64, params model.ListParams) ([]model.StockMovement, *model.PageMeta, error) {
	if _, err := s.GetIngredient(ctx, ingredientID); err != nil {
		return nil, nil, err
	}
	params.Normalize()

	movements, total, err := s.inventoryRepo.ListMovements(ctx, ingredientID, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, model.NewPageMeta(params, total), nil
}

func (s *inventoryService) ListIngredients(ctx context.Context, params model.ListParams) ([]model.Ingredient, *model.PageMeta, error) {
	params.Normalize()

	ingredients, total, err := s.inventoryRepo.List(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, model.NewPageMeta(params, total), nil
}

func (s *inventoryService) GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error) {
	ing, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	if ing == nil {
		return nil, model.ErrIngredientNotFound
	}
	return ing, nil
}

func (s *inventoryService) CreateIngredient(ctx context.Context, input *model.IngredientInput) (*model.Ingredient, error) {
	if input == nil {
		return nil, model.ErrValidation.Withf("request body is required")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	ing, err := s.inventoryRepo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("ingredient_id", ing.ID).Str("name", ing.Name).Msg("ingredient created")
	return ing, nil
}

func (s *inventoryService) UpdateIngredient(ctx context.Context, id int64, input *model.IngredientInput) (*model.Ingredient, error) {
	if input == nil {
		return nil, model.ErrValidation.Withf("request body is required")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	ing, err := s.inventoryRepo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		return nil, model.ErrIngredientNotFound
	}
	return ing, nil
}

func (s *inventoryService) DeleteIngredient(ctx context.Context, id int64) error {
	ok, err := s.inventoryRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrIngredientNotFound
	}

	s.logger.Info().Int64("ingredient_id", id).Msg("ingredient deleted")
	return nil
}

func (s *inventoryService) rollbackOnError(ctx context.Context, tx pgx.Tx, err *error) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}

func (s *inventoryService) publishLowStock(ctx context.Context, levels []model.StockLevel, source string) {
	ctx = context.WithoutCancel(ctx)
	for _, level := range levels {
		err := s.publisher.PublishLowStock(ctx, events.LowStock{
			IngredientID: level.IngredientID,
			Name:         level.Name,
			StockQty:     level.StockQty,
			ReorderPoint: level.ReorderPoint,
			Source:       source,
			OccurredAt:   s.now().UTC(),
		})
		if err != nil {
			s.logger.Warn().Err(err).Int64("ingredient_id", level.IngredientID).Msg("failed to publish low stock event")
		}
	}
}
