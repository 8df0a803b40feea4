package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"coffee-pos/internal/config"
	"coffee-pos/internal/events"
	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	promotionRepo repository.PromotionRepository
	inventoryRepo repository.InventoryRepository
	publisher     events.Publisher
	allowNegative bool
	now           clock
	logger        zerolog.Logger
}

// NewOrderService creates a new order service. productRepo must read the
// database directly; settlement never goes through the catalogue cache.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	promotionRepo repository.PromotionRepository,
	inventoryRepo repository.InventoryRepository,
	publisher events.Publisher,
	cfg config.InventoryConfig,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &orderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		promotionRepo: promotionRepo,
		inventoryRepo: inventoryRepo,
		publisher:     publisher,
		allowNegative: cfg.AllowNegativeStock,
		now:           time.Now,
		logger:        logger.With().Str("service", "order").Logger(),
	}
}

// consumption is one recipe deduction for one order line.
type consumption struct {
	ingredientID int64
	productID    int64
	qty          decimal.Decimal
}

// CreateOrder settles a cart in a single transaction.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.OrderStatusPaid
	}
	payMethod := strings.TrimSpace(req.PayMethod)
	if payMethod == "" {
		payMethod = model.DefaultPayMethod
	}

	var idemKey *string
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		idemKey = &key
		existing, err := s.orderRepo.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing != nil {
			s.logger.Info().
				Str("order_id", existing.ID.String()).
				Str("idempotency_key", key).
				Msg("replaying settled order")
			return &model.OrderResult{ID: existing.ID, Total: existing.Total}, nil
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := s.now().UTC()
	order := &model.Order{
		ID:             uuid.New(),
		Status:         status,
		PayMethod:      payMethod,
		Note:           req.Note,
		Customer:       req.Customer,
		IdempotencyKey: idemKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Resolve products and snapshot name and price
	items := make([]model.OrderItem, len(req.Items))
	for i, line := range req.Items {
		product, perr := s.productRepo.GetForSale(ctx, tx, line.ProductID)
		if perr != nil {
			err = perr
			return nil, fmt.Errorf("failed to resolve product: %w", err)
		}
		if product == nil {
			err = model.ErrProductNotFound.Withf("Product %d not found", line.ProductID)
			s.logger.Warn().Int64("product_id", line.ProductID).Msg("product not found for sale")
			return nil, err
		}

		items[i] = model.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Qty,
			UnitPrice:   product.Price,
			Options:     line.Options,
		}
	}

	order.SubTotal = Subtotal(items)

	if req.DiscountCode != nil {
		if code := strings.TrimSpace(*req.DiscountCode); code != "" {
			order.DiscountCode = &code

			promo, perr := s.promotionRepo.FindByCode(ctx, tx, code)
			if perr != nil {
				err = perr
				return nil, fmt.Errorf("failed to look up promotion: %w", err)
			}
			order.Discount = Discount(promo, order.SubTotal, now)
			if promo == nil || order.Discount.IsZero() {
				s.logger.Debug().Str("discount_code", code).Msg("promotion not applicable")
			}
		}
	}
	order.Total = order.SubTotal.Sub(order.Discount)

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			return s.replayAfterRace(ctx, *idemKey)
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	lowStock, err := s.deductStock(ctx, tx, order.ID, items)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order settled")

	s.publishSettled(ctx, order, items, lowStock)

	return &model.OrderResult{ID: order.ID, Total: order.Total}, nil
}

// deductStock consumes recipe ingredients for every line and appends one
// consume movement per line and ingredient. Ingredients are updated in id
// order so that concurrent settlements lock rows in the same sequence.
func (s *orderService) deductStock(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) ([]model.StockLevel, error) {
	var consumed []consumption
	for _, item := range items {
		recipe, err := s.productRepo.GetRecipe(ctx, tx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to read recipe: %w", err)
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		for _, entry := range recipe {
			consumed = append(consumed, consumption{
				ingredientID: entry.IngredientID,
				productID:    item.ProductID,
				qty:          entry.Quantity.Mul(qty),
			})
		}
	}

	if len(consumed) == 0 {
		return nil, nil
	}

	ordered := make([]consumption, len(consumed))
	copy(ordered, consumed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ingredientID < ordered[j].ingredientID
	})

	levels := make(map[int64]model.StockLevel)
	var touched []int64
	for _, c := range ordered {
		level, err := s.inventoryRepo.ApplyDelta(ctx, tx, c.ingredientID, c.qty.Neg())
		if err != nil {
			return nil, fmt.Errorf("failed to deduct stock: %w", err)
		}
		if level == nil {
			s.logger.Error().
				Int64("ingredient_id", c.ingredientID).
				Int64("product_id", c.productID).
				Msg("recipe references a missing ingredient")
			return nil, fmt.Errorf("recipe of product %d references missing ingredient %d", c.productID, c.ingredientID)
		}
		if level.StockQty.IsNegative() && !s.allowNegative {
			s.logger.Warn().
				Int64("ingredient_id", c.ingredientID).
				Str("stock_qty", level.StockQty.String()).
				Msg("insufficient stock")
			return nil, model.ErrInsufficientStock.Withf("Not enough %s in stock", level.Name)
		}
		if _, seen := levels[c.ingredientID]; !seen {
			touched = append(touched, c.ingredientID)
		}
		levels[c.ingredientID] = *level
	}

	now := s.now().UTC()
	movements := make([]model.StockMovement, len(consumed))
	for i, c := range consumed {
		ref, err := json.Marshal(model.ConsumeRef{OrderID: orderID, ProductID: c.productID})
		if err != nil {
			return nil, fmt.Errorf("failed to encode movement reference: %w", err)
		}
		movements[i] = model.StockMovement{
			ID:           uuid.New(),
			IngredientID: c.ingredientID,
			Type:         model.MovementConsume,
			Quantity:     c.qty.Neg(),
			Ref:          ref,
			CreatedAt:    now,
		}
	}

	if err := s.inventoryRepo.InsertMovements(ctx, tx, movements); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to record stock movements")
		return nil, fmt.Errorf("failed to record stock movements: %w", err)
	}

	var low []model.StockLevel
	for _, id := range touched {
		if level := levels[id]; level.BelowReorderPoint() {
			low = append(low, level)
		}
	}
	return low, nil
}

// replayAfterRace returns the order that won a concurrent insert with the same key.
// The losing transaction is rolled back by the caller.
func (s *orderService) replayAfterRace(ctx context.Context, key string) (*model.OrderResult, error) {
	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("order with idempotency key %q vanished", key)
	}

	s.logger.Info().
		Str("order_id", existing.ID.String()).
		Str("idempotency_key", key).
		Msg("concurrent request already settled this order")
	return &model.OrderResult{ID: existing.ID, Total: existing.Total}, nil
}

func (s *orderService) publishSettled(ctx context.Context, order *model.Order, items []model.OrderItem, low []model.StockLevel) {
	// Publishing must not be cut short by the request finishing.
	ctx = context.WithoutCancel(ctx)
	now := s.now().UTC()

	itemCount := 0
	for _, item := range items {
		itemCount += item.Quantity
	}

	err := s.publisher.PublishOrderSettled(ctx, events.OrderSettled{
		OrderID:      order.ID,
		Status:       order.Status,
		PayMethod:    order.PayMethod,
		SubTotal:     order.SubTotal,
		Discount:     order.Discount,
		Total:        order.Total,
		DiscountCode: order.DiscountCode,
		ItemCount:    itemCount,
		OccurredAt:   now,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish order event")
	}

	for _, level := range low {
		err := s.publisher.PublishLowStock(ctx, events.LowStock{
			IngredientID: level.IngredientID,
			Name:         level.Name,
			StockQty:     level.StockQty,
			ReorderPoint: level.ReorderPoint,
			Source:       model.MovementConsume,
			OccurredAt:   now,
		})
		if err != nil {
			s.logger.Warn().Err(err).Int64("ingredient_id", level.IngredientID).Msg("failed to publish low stock event")
		}
	}
}

// GetByID retrieves an order by its ID with all items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	order.Items = items
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.OrderSummary, *model.PageMeta, error) {
	if filter.Status != "" && !model.ValidOrderStatus(filter.Status) {
		return nil, nil, model.ErrInvalidStatus.Withf("Unknown status %q", filter.Status)
	}
	filter.Normalize()

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, model.NewPageMeta(filter.ListParams, total), nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !model.ValidOrderStatus(status) {
		return model.ErrInvalidStatus.Withf("Unknown status %q", status)
	}

	ok, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		return model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_id", id.String()).Str("status", status).Msg("order status updated")
	return nil
}

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.orderRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if !ok {
		return model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

// validateOrderRequest checks the cart before any transaction is opened.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrEmptyCart
	}

	for i, item := range req.Items {
		if item.Malformed() || item.ProductID <= 0 || item.Qty <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", item.ProductID).
				Int("qty", item.Qty).
				Msg("invalid order item")
			return model.ErrInvalidItem.Withf("Item %d needs a product id and a positive whole quantity", i)
		}
	}

	if req.Status != "" && !model.ValidOrderStatus(req.Status) {
		return model.ErrInvalidStatus.Withf("Unknown status %q", req.Status)
	}

	return nil
}
