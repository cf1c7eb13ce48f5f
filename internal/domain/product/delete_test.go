package product_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/purchase"
	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/Kyac99/finance-gestion-app/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteProductCascades(t *testing.T) {
	db := testutil.NewDB(t,
		&partner.Supplier{}, &partner.Customer{},
		&product.Category{}, &product.Product{},
		&purchase.Purchase{}, &purchase.PurchaseItem{}, &purchase.PurchasePayment{},
		&sale.Sale{}, &sale.SaleItem{}, &sale.SalePayment{},
		&inventory.StockMovement{},
	)
	log, _ := testutil.NullLogger()
	svc := product.NewService(db, nil, log)
	ctx := context.Background()
	day := shared.NewDate(2025, 3, 10)

	supplier := partner.Supplier{Name: "Acme"}
	customer := partner.Customer{Name: "Bintou"}
	require.NoError(t, db.Create(&supplier).Error)
	require.NoError(t, db.Create(&customer).Error)

	dropped := product.Product{Name: "Dropped", BuyingPrice: decimal.NewFromInt(10), SellingPrice: decimal.NewFromInt(20)}
	kept := product.Product{Name: "Kept", BuyingPrice: decimal.NewFromInt(10), SellingPrice: decimal.NewFromInt(20)}
	require.NoError(t, db.Create(&dropped).Error)
	require.NoError(t, db.Create(&kept).Error)

	// 5x10 of the dropped product and 3x10 of the kept one, 30 paid: partial
	po := purchase.Purchase{SupplierID: supplier.ID, OrderDate: day, PaymentStatus: shared.PaymentStatusPartial}
	require.NoError(t, db.Create(&po).Error)
	require.NoError(t, db.Create(&[]purchase.PurchaseItem{
		{PurchaseID: po.ID, ProductID: dropped.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(10)},
		{PurchaseID: po.ID, ProductID: kept.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(10)},
	}).Error)
	require.NoError(t, db.Create(&purchase.PurchasePayment{
		PurchaseID: po.ID, PaymentDate: day, Amount: decimal.NewFromInt(30), PaymentMethod: shared.PaymentMethodCash,
	}).Error)

	// only the dropped product, 10 paid against 40: partial, then nothing left to pay
	sl := sale.Sale{CustomerID: customer.ID, SaleDate: day, Status: sale.StatusConfirmed, PaymentStatus: shared.PaymentStatusPartial}
	require.NoError(t, db.Create(&sl).Error)
	require.NoError(t, db.Create(&sale.SaleItem{
		SaleID: sl.ID, ProductID: dropped.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(20),
	}).Error)
	require.NoError(t, db.Create(&sale.SalePayment{
		SaleID: sl.ID, PaymentDate: day, Amount: decimal.NewFromInt(10), PaymentMethod: shared.PaymentMethodCash,
	}).Error)

	require.NoError(t, db.Create(&inventory.StockMovement{
		ProductID: dropped.ID, MovementType: inventory.MovementTypeIn, Quantity: 5, Date: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}).Error)

	require.NoError(t, svc.DeleteProduct(ctx, dropped.ID))

	_, err := svc.GetProduct(ctx, dropped.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	var count int64
	require.NoError(t, db.Model(&purchase.PurchaseItem{}).Where("product_id = ?", dropped.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&sale.SaleItem{}).Where("product_id = ?", dropped.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&inventory.StockMovement{}).Where("product_id = ?", dropped.ID).Count(&count).Error)
	assert.Zero(t, count)

	// the other line of the purchase survives
	require.NoError(t, db.Model(&purchase.PurchaseItem{}).Where("purchase_id = ?", po.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var reloadedPO purchase.Purchase
	require.NoError(t, db.First(&reloadedPO, po.ID).Error)
	assert.Equal(t, shared.PaymentStatusPaid, reloadedPO.PaymentStatus)

	var reloadedSale sale.Sale
	require.NoError(t, db.First(&reloadedSale, sl.ID).Error)
	assert.Equal(t, shared.PaymentStatusPaid, reloadedSale.PaymentStatus)

	_, err = svc.GetProduct(ctx, kept.ID)
	assert.NoError(t, err)

	assert.True(t, errors.Is(svc.DeleteProduct(ctx, dropped.ID), shared.ErrNotFound))
}

func TestDeleteUnreferencedProduct(t *testing.T) {
	db := testutil.NewDB(t,
		&partner.Supplier{}, &product.Category{}, &product.Product{},
		&purchase.Purchase{}, &purchase.PurchaseItem{}, &purchase.PurchasePayment{},
		&partner.Customer{}, &sale.Sale{}, &sale.SaleItem{}, &sale.SalePayment{},
		&inventory.StockMovement{},
	)
	log, _ := testutil.NullLogger()
	svc := product.NewService(db, nil, log)

	p := product.Product{Name: "Loose", BuyingPrice: decimal.NewFromInt(1), SellingPrice: decimal.NewFromInt(2)}
	require.NoError(t, db.Create(&p).Error)

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID))
	_, err := svc.GetProduct(context.Background(), p.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
