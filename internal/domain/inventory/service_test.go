package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/Kyac99/finance-gestion-app/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupInventoryTest(t *testing.T, stock int) (*gorm.DB, *Service, *product.Product) {
	db := testutil.NewDB(t, &partner.Supplier{}, &product.Category{}, &product.Product{}, &StockMovement{})
	log, _ := testutil.NullLogger()

	p := &product.Product{
		Name:          "Widget",
		BuyingPrice:   decimal.NewFromInt(4),
		SellingPrice:  decimal.NewFromInt(6),
		StockQuantity: stock,
		MinStockLevel: 5,
	}
	require.NoError(t, db.Create(p).Error)

	svc := NewService(db, log).WithClock(testutil.FixedClock(2024, time.May, 10))
	return db, svc, p
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQuantity
}

func TestRecordMovementAppliesDelta(t *testing.T) {
	tests := []struct {
		name      string
		typ       MovementType
		quantity  int
		wantStock int
	}{
		{"in adds", MovementTypeIn, 7, 17},
		{"out subtracts", MovementTypeOut, 3, 7},
		{"positive adjustment", MovementTypeAdjustment, 2, 12},
		{"negative adjustment", MovementTypeAdjustment, -4, 6},
		{"out below zero is allowed", MovementTypeOut, 15, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, svc, p := setupInventoryTest(t, 10)

			movement, err := svc.RecordMovement(context.Background(), &MovementCreateRequest{
				ProductID:    p.ID,
				Quantity:     tt.quantity,
				MovementType: tt.typ,
				Reference:    "count",
			}, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStock, stockOf(t, db, p.ID))
			assert.Equal(t, 10, movement.PreviousQuantity)
			assert.Equal(t, tt.wantStock, movement.NewQuantity)
			assert.Equal(t, "Widget", movement.ProductName)
			assert.Equal(t, time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC), movement.Date.UTC())
		})
	}
}

func TestRecordMovementValidation(t *testing.T) {
	tests := []struct {
		name     string
		typ      MovementType
		quantity int
	}{
		{"in with negative quantity", MovementTypeIn, -1},
		{"out with zero quantity", MovementTypeOut, 0},
		{"zero adjustment", MovementTypeAdjustment, 0},
		{"unknown type", MovementType("transfer"), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, svc, p := setupInventoryTest(t, 10)

			_, err := svc.RecordMovement(context.Background(), &MovementCreateRequest{
				ProductID:    p.ID,
				Quantity:     tt.quantity,
				MovementType: tt.typ,
			}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrValidation))
			assert.Equal(t, 10, stockOf(t, db, p.ID))

			var count int64
			require.NoError(t, db.Model(&StockMovement{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestRecordMovementUnknownProduct(t *testing.T) {
	db, svc, _ := setupInventoryTest(t, 10)

	_, err := svc.RecordMovement(context.Background(), &MovementCreateRequest{
		ProductID:    999,
		Quantity:     1,
		MovementType: MovementTypeIn,
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	var count int64
	require.NoError(t, db.Model(&StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplyMovementRollsBackWithCallerTransaction(t *testing.T) {
	db, svc, p := setupInventoryTest(t, 10)

	sentinel := errors.New("later step failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.ApplyMovement(tx, &StockMovement{ProductID: p.ID, Quantity: 5, MovementType: MovementTypeIn}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	assert.Equal(t, 10, stockOf(t, db, p.ID))
}

func TestUpdateAndDeleteMovementKeepStock(t *testing.T) {
	db, svc, p := setupInventoryTest(t, 10)
	ctx := context.Background()

	movement, err := svc.RecordMovement(ctx, &MovementCreateRequest{ProductID: p.ID, Quantity: 5, MovementType: MovementTypeIn}, nil)
	require.NoError(t, err)

	ref := "Delivery note 42"
	updated, err := svc.UpdateMovement(ctx, movement.ID, &MovementUpdateRequest{Reference: &ref})
	require.NoError(t, err)
	assert.Equal(t, ref, updated.Reference)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, 15, stockOf(t, db, p.ID))

	require.NoError(t, svc.DeleteMovement(ctx, movement.ID))
	assert.Equal(t, 15, stockOf(t, db, p.ID))

	err = svc.DeleteMovement(ctx, movement.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestListMovementsFilters(t *testing.T) {
	_, svc, p := setupInventoryTest(t, 0)
	ctx := context.Background()

	for _, req := range []MovementCreateRequest{
		{ProductID: p.ID, Quantity: 10, MovementType: MovementTypeIn, Reference: "Purchase #1"},
		{ProductID: p.ID, Quantity: 2, MovementType: MovementTypeOut, Reference: "damaged"},
		{ProductID: p.ID, Quantity: 3, MovementType: MovementTypeIn, Reference: "Purchase #2"},
	} {
		_, err := svc.RecordMovement(ctx, &req, nil)
		require.NoError(t, err)
	}

	res, err := svc.ListMovements(ctx, &MovementListRequest{MovementType: MovementTypeIn})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pagination.Total)
	assert.Equal(t, "Purchase #2", res.Movements[0].Reference)

	res, err = svc.ListMovements(ctx, &MovementListRequest{ListRequest: shared.ListRequest{Search: "damag"}})
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, 10, res.Movements[0].PreviousQuantity)
	assert.Equal(t, 8, res.Movements[0].NewQuantity)
}

func TestAdjustStockLogsAtDebug(t *testing.T) {
	db, _, p := setupInventoryTest(t, 1)
	log, hook := testutil.NullLogger()
	log.SetLevel(logrus.DebugLevel)
	svc := NewService(db, log)

	stock, err := svc.AdjustStock(db, p.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Stock adjusted", entry.Message)
	assert.Equal(t, -1, entry.Data["delta"])
}
