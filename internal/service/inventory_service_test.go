package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coffee-pos/internal/config"
	"coffee-pos/internal/events"
	"coffee-pos/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type inventoryFixture struct {
	repo      *MockInventoryRepository
	publisher *MockPublisher
	tx        *MockTx
	service   *inventoryService
}

func newInventoryFixture() *inventoryFixture {
	f := &inventoryFixture{
		repo:      new(MockInventoryRepository),
		publisher: new(MockPublisher),
		tx:        new(MockTx),
	}
	f.service = NewInventoryService(f.repo, f.publisher, config.InventoryConfig{}, zerolog.Nop()).(*inventoryService)
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func milk(stock string) *model.Ingredient {
	return &model.Ingredient{ID: 3, Name: "Milk", Unit: "ml", StockQty: dec(stock), ReorderPoint: dec("500")}
}

func TestInventoryService_Receive(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture()

	supplierID := int64(4)
	price := dec("0.05")
	req := &model.ReceiveRequest{
		SupplierID: &supplierID,
		Date:       "2026-02-27",
		Items: []model.ReceiveItem{
			{IngredientID: 3, Qty: dec("2000"), PricePerUnit: &price},
			{IngredientID: 5, Qty: dec("10")},
		},
	}

	f.repo.On("BeginTx", ctx).Return(f.tx, nil)
	f.repo.On("ApplyDelta", ctx, f.tx, int64(3), decEq("2000")).
		Return(&model.StockLevel{IngredientID: 3, Name: "Milk", StockQty: dec("2100")}, nil)
	f.repo.On("UpdateCostAndSupplier", ctx, f.tx, int64(3), &price, &supplierID).Return(nil)
	f.repo.On("ApplyDelta", ctx, f.tx, int64(5), decEq("10")).
		Return(&model.StockLevel{IngredientID: 5, Name: "Cups", StockQty: dec("60")}, nil)
	f.repo.On("UpdateCostAndSupplier", ctx, f.tx, int64(5), (*decimal.Decimal)(nil), &supplierID).Return(nil)
	f.repo.On("InsertMovements", ctx, f.tx, mock.AnythingOfType("[]model.StockMovement")).Return(nil)
	f.tx.On("Commit", ctx).Return(nil)

	movements, err := f.service.Receive(ctx, req)

	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, model.MovementReceive, movements[0].Type)
	assert.True(t, dec("2000").Equal(movements[0].Quantity))
	assert.Equal(t, "Milk", movements[0].IngredientName)
	assert.JSONEq(t, `{"supplier_id":4,"price_per_unit":"0.05"}`, string(movements[0].Ref))
	assert.JSONEq(t, `{"supplier_id":4,"price_per_unit":null}`, string(movements[1].Ref))
	assert.Equal(t, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), movements[0].CreatedAt)
	f.repo.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func TestInventoryService_Receive_Validation(t *testing.T) {
	negative := dec("-1")

	tests := []struct {
		name    string
		req     *model.ReceiveRequest
		wantErr error
	}{
		{name: "Nil", req: nil, wantErr: model.ErrNoItems},
		{name: "No items", req: &model.ReceiveRequest{}, wantErr: model.ErrNoItems},
		{
			name:    "Zero quantity",
			req:     &model.ReceiveRequest{Items: []model.ReceiveItem{{IngredientID: 1, Qty: dec("0")}}},
			wantErr: model.ErrInvalidItem,
		},
		{
			name:    "Missing ingredient id",
			req:     &model.ReceiveRequest{Items: []model.ReceiveItem{{Qty: dec("1")}}},
			wantErr: model.ErrInvalidItem,
		},
		{
			name:    "Negative price",
			req:     &model.ReceiveRequest{Items: []model.ReceiveItem{{IngredientID: 1, Qty: dec("1"), PricePerUnit: &negative}}},
			wantErr: model.ErrValidation,
		},
		{
			name:    "Bad date",
			req:     &model.ReceiveRequest{Date: "27/02/2026", Items: []model.ReceiveItem{{IngredientID: 1, Qty: dec("1")}}},
			wantErr: model.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInventoryFixture()

			_, err := f.service.Receive(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			f.repo.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestInventoryService_Receive_UnknownIngredientRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture()

	f.repo.On("BeginTx", ctx).Return(f.tx, nil)
	f.repo.On("ApplyDelta", ctx, f.tx, int64(77), mock.Anything).Return(nil, nil)
	f.tx.On("Rollback", ctx).Return(nil)

	_, err := f.service.Receive(ctx, &model.ReceiveRequest{Items: []model.ReceiveItem{{IngredientID: 77, Qty: dec("1")}}})

	assert.ErrorIs(t, err, model.ErrIngredientNotFound)
	f.tx.AssertExpectations(t)
	f.tx.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestInventoryService_AdjustBatch(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture()

	f.repo.On("BeginTx", ctx).Return(f.tx, nil)
	f.repo.On("ApplyDelta", ctx, f.tx, int64(3), decEq("-700")).
		Return(&model.StockLevel{IngredientID: 3, Name: "Milk", StockQty: dec("300"), ReorderPoint: dec("500")}, nil)
	f.repo.On("ApplyDelta", ctx, f.tx, int64(5), decEq("5")).
		Return(&model.StockLevel{IngredientID: 5, Name: "Cups", StockQty: dec("55"), ReorderPoint: dec("20")}, nil)
	f.repo.On("InsertMovements", ctx, f.tx, mock.Anything).Return(nil)
	f.tx.On("Commit", ctx).Return(nil)
	f.publisher.On("PublishLowStock", mock.Anything, mock.MatchedBy(func(e events.LowStock) bool {
		return e.IngredientID == 3 && e.Source == model.MovementAdjust
	})).Return(nil).Once()

	movements, err := f.service.AdjustBatch(ctx, &model.AdjustRequest{Items: []model.AdjustItem{
		{IngredientID: 3, Qty: dec("-700")},
		{IngredientID: 5, Qty: dec("5")},
	}})

	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, model.MovementAdjust, m.Type)
		require.NotNil(t, m.Reason)
		assert.Equal(t, "adjust", *m.Reason)
	}
	assert.True(t, dec("-700").Equal(movements[0].Quantity))
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestInventoryService_AdjustBatch_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("Zero quantity", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.AdjustBatch(ctx, &model.AdjustRequest{Items: []model.AdjustItem{{IngredientID: 1, Qty: dec("0")}}})
		assert.ErrorIs(t, err, model.ErrInvalidItem)
	})

	t.Run("No items", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.AdjustBatch(ctx, &model.AdjustRequest{Reason: "count"})
		assert.ErrorIs(t, err, model.ErrNoItems)
	})

	t.Run("Negative result", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("BeginTx", ctx).Return(f.tx, nil)
		f.repo.On("ApplyDelta", ctx, f.tx, int64(3), mock.Anything).
			Return(&model.StockLevel{IngredientID: 3, Name: "Milk", StockQty: dec("-5")}, nil)
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.service.AdjustBatch(ctx, &model.AdjustRequest{Items: []model.AdjustItem{{IngredientID: 3, Qty: dec("-10")}}})

		assert.ErrorIs(t, err, model.ErrInsufficientStock)
		f.tx.AssertExpectations(t)
	})
}

func TestInventoryService_Adjust(t *testing.T) {
	supplierID := int64(2)
	cost := dec("0.06")

	tests := []struct {
		name      string
		stock     string
		req       model.AdjustmentRequest
		wantDelta string
		wantStock string
		wantType  string
	}{
		{
			name:      "Increase",
			stock:     "100",
			req:       model.AdjustmentRequest{Type: "increase", Amount: dec("50")},
			wantDelta: "50",
			wantStock: "150",
			wantType:  model.MovementAdjust,
		},
		{
			name:      "Decrease",
			stock:     "100",
			req:       model.AdjustmentRequest{Type: "DECREASE", Amount: dec("40"), Reason: "spilled"},
			wantDelta: "-40",
			wantStock: "60",
			wantType:  model.MovementAdjust,
		},
		{
			name:      "Set down",
			stock:     "1000",
			req:       model.AdjustmentRequest{Type: "set", Amount: dec("750")},
			wantDelta: "-250",
			wantStock: "750",
			wantType:  model.MovementAdjust,
		},
		{
			name:      "Set up",
			stock:     "100",
			req:       model.AdjustmentRequest{Type: "set", Amount: dec("400")},
			wantDelta: "300",
			wantStock: "400",
			wantType:  model.MovementAdjust,
		},
		{
			name:      "Receive",
			stock:     "100",
			req:       model.AdjustmentRequest{Type: "receive", Amount: dec("900"), CostPerUnit: &cost, SupplierID: &supplierID},
			wantDelta: "900",
			wantStock: "1000",
			wantType:  model.MovementReceive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newInventoryFixture()

			f.repo.On("BeginTx", ctx).Return(f.tx, nil)
			f.repo.On("LockForUpdate", ctx, f.tx, int64(3)).Return(milk(tt.stock), nil)
			f.repo.On("SetStock", ctx, f.tx, int64(3), decEq(tt.wantStock)).Return(nil)

			var movements []model.StockMovement
			f.repo.On("InsertMovements", ctx, f.tx, mock.Anything).
				Run(func(args mock.Arguments) { movements = args.Get(2).([]model.StockMovement) }).
				Return(nil)
			if tt.req.CostPerUnit != nil || tt.req.SupplierID != nil {
				f.repo.On("UpdateCostAndSupplier", ctx, f.tx, int64(3), tt.req.CostPerUnit, tt.req.SupplierID).Return(nil)
			}
			f.tx.On("Commit", ctx).Return(nil)
			f.repo.On("GetByID", ctx, int64(3)).Return(milk(tt.wantStock), nil)
			f.publisher.On("PublishLowStock", mock.Anything, mock.Anything).Return(nil).Maybe()

			req := tt.req
			result, err := f.service.Adjust(ctx, 3, &req)

			require.NoError(t, err)
			assert.True(t, dec(tt.wantDelta).Equal(result.Delta), "delta %s", result.Delta)
			assert.True(t, dec(tt.wantStock).Equal(result.Ingredient.StockQty))
			require.Len(t, movements, 1)
			assert.Equal(t, tt.wantType, movements[0].Type)
			assert.True(t, dec(tt.wantDelta).Equal(movements[0].Quantity))
			require.NotNil(t, movements[0].Reason)
			f.repo.AssertExpectations(t)
			f.tx.AssertNotCalled(t, "Rollback", mock.Anything)
		})
	}
}

func TestInventoryService_Adjust_SetToSameValueWritesNoMovement(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture()

	f.repo.On("BeginTx", ctx).Return(f.tx, nil)
	f.repo.On("LockForUpdate", ctx, f.tx, int64(3)).Return(milk("100"), nil)
	f.tx.On("Commit", ctx).Return(nil)
	f.repo.On("GetByID", ctx, int64(3)).Return(milk("100"), nil)

	result, err := f.service.Adjust(ctx, 3, &model.AdjustmentRequest{Type: "set", Amount: dec("100")})

	require.NoError(t, err)
	assert.True(t, result.Delta.IsZero())
	f.repo.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "InsertMovements", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryService_Adjust_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown type", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.Adjust(ctx, 3, &model.AdjustmentRequest{Type: "steal", Amount: dec("1")})
		assert.ErrorIs(t, err, model.ErrInvalidAdjustmentType)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.Adjust(ctx, 3, &model.AdjustmentRequest{Type: "increase", Amount: dec("0")})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("Decrease below zero", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("BeginTx", ctx).Return(f.tx, nil)
		f.repo.On("LockForUpdate", ctx, f.tx, int64(3)).Return(milk("10"), nil)
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.service.Adjust(ctx, 3, &model.AdjustmentRequest{Type: "decrease", Amount: dec("11")})

		assert.ErrorIs(t, err, model.ErrInsufficientStock)
		f.tx.AssertExpectations(t)
		f.repo.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing ingredient", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("BeginTx", ctx).Return(f.tx, nil)
		f.repo.On("LockForUpdate", ctx, f.tx, int64(9)).Return(nil, nil)
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.service.Adjust(ctx, 9, &model.AdjustmentRequest{Type: "increase", Amount: dec("1")})

		assert.ErrorIs(t, err, model.ErrIngredientNotFound)
		f.tx.AssertExpectations(t)
	})

	t.Run("Unknown supplier rolls back", func(t *testing.T) {
		f := newInventoryFixture()
		supplierID := int64(99)
		f.repo.On("BeginTx", ctx).Return(f.tx, nil)
		f.repo.On("LockForUpdate", ctx, f.tx, int64(3)).Return(milk("10"), nil)
		f.repo.On("SetStock", ctx, f.tx, int64(3), mock.Anything).Return(nil)
		f.repo.On("InsertMovements", ctx, f.tx, mock.Anything).Return(nil)
		f.repo.On("UpdateCostAndSupplier", ctx, f.tx, int64(3), mock.Anything, &supplierID).
			Return(model.ErrSupplierNotFound)
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.service.Adjust(ctx, 3, &model.AdjustmentRequest{Type: "receive", Amount: dec("1"), SupplierID: &supplierID})

		assert.ErrorIs(t, err, model.ErrSupplierNotFound)
		f.tx.AssertExpectations(t)
	})
}

func TestInventoryService_Ingredients(t *testing.T) {
	ctx := context.Background()

	t.Run("Create validates", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.CreateIngredient(ctx, &model.IngredientInput{Unit: "g"})
		assert.ErrorIs(t, err, model.ErrValidation)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Create", func(t *testing.T) {
		f := newInventoryFixture()
		input := &model.IngredientInput{Name: "Beans", Unit: "g", ReorderPoint: dec("1000")}
		f.repo.On("Create", ctx, input).Return(&model.Ingredient{ID: 1, Name: "Beans"}, nil)

		ing, err := f.service.CreateIngredient(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, int64(1), ing.ID)
	})

	t.Run("Update missing", func(t *testing.T) {
		f := newInventoryFixture()
		input := &model.IngredientInput{Name: "Beans", Unit: "g"}
		f.repo.On("Update", ctx, int64(8), input).Return(nil, nil)

		_, err := f.service.UpdateIngredient(ctx, 8, input)

		assert.ErrorIs(t, err, model.ErrIngredientNotFound)
	})

	t.Run("Delete missing", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("Delete", ctx, int64(8)).Return(false, nil)

		assert.ErrorIs(t, f.service.DeleteIngredient(ctx, 8), model.ErrIngredientNotFound)
	})

	t.Run("Delete used by a recipe", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("Delete", ctx, int64(8)).Return(false, model.ErrIngredientInUse.Withf("Ingredient 8 is used by Latte"))

		assert.ErrorIs(t, f.service.DeleteIngredient(ctx, 8), model.ErrIngredientInUse)
	})

	t.Run("Movements of missing ingredient", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("GetByID", ctx, int64(8)).Return(nil, nil)

		_, _, err := f.service.ListMovements(ctx, 8, model.ListParams{})

		assert.ErrorIs(t, err, model.ErrIngredientNotFound)
	})

	t.Run("Movements", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("GetByID", ctx, int64(3)).Return(milk("1"), nil)
		f.repo.On("ListMovements", ctx, int64(3), model.ListParams{Page: 1, Limit: model.DefaultPageSize}).
			Return([]model.StockMovement{{IngredientID: 3}}, 1, nil)

		movements, meta, err := f.service.ListMovements(ctx, 3, model.ListParams{})

		require.NoError(t, err)
		assert.Len(t, movements, 1)
		assert.Equal(t, 1, meta.Pages)
	})

	t.Run("List error", func(t *testing.T) {
		f := newInventoryFixture()
		f.repo.On("List", ctx, mock.Anything).Return(nil, 0, errors.New("boom"))

		_, _, err := f.service.ListIngredients(ctx, model.ListParams{})

		assert.Error(t, err)
	})
}
