package sale

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/Kyac99/finance-gestion-app/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	customer partner.Customer
	lamp     product.Product
	bulb     product.Product
}

var today = shared.NewDate(2024, time.March, 10)

func setupSaleTest(t *testing.T) *fixture {
	db := testutil.NewDB(t,
		&partner.Supplier{}, &partner.Customer{}, &product.Category{}, &product.Product{},
		&inventory.StockMovement{}, &Sale{}, &SaleItem{}, &SalePayment{}, &Invoice{})
	log, _ := testutil.NullLogger()
	clock := testutil.FixedClock(2024, time.March, 10)

	f := &fixture{db: db}
	f.customer = partner.Customer{Name: "Awa Traoré", Email: "awa@example.com"}
	require.NoError(t, db.Create(&f.customer).Error)
	f.lamp = product.Product{Name: "Desk lamp", BuyingPrice: dec("12"), SellingPrice: dec("20"), StockQuantity: 10, MinStockLevel: 2}
	f.bulb = product.Product{Name: "LED bulb", BuyingPrice: dec("1"), SellingPrice: dec("3"), StockQuantity: 50, MinStockLevel: 10}
	require.NoError(t, db.Create(&f.lamp).Error)
	require.NoError(t, db.Create(&f.bulb).Error)

	cfg := &config.Config{Business: config.BusinessConfig{InvoiceDueDays: 30}}
	inv := inventory.NewService(db, log).WithClock(clock)
	f.svc = NewService(db, inv, cfg, log).WithClock(clock)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) createSale(t *testing.T, status Status) *SaleDetail {
	t.Helper()
	detail, err := f.svc.CreateSale(context.Background(), &CreateRequest{
		CustomerID: f.customer.ID,
		Reference:  "SO-100",
		Status:     status,
		Items: []ItemRequest{
			{ProductID: f.lamp.ID, Quantity: 2, UnitPrice: dec("20"), Discount: dec("5")},
			{ProductID: f.bulb.ID, Quantity: 5, UnitPrice: dec("3")},
		},
	}, nil)
	require.NoError(t, err)
	return detail
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p.StockQuantity
}

func TestCreateSaleComputesTotals(t *testing.T) {
	f := setupSaleTest(t)
	detail := f.createSale(t, StatusPending)

	assert.Equal(t, today, detail.SaleDate)
	assert.Equal(t, "Awa Traoré", detail.CustomerName)
	require.Len(t, detail.Items, 2)
	assert.True(t, detail.Items[0].TotalPrice.Equal(dec("35")))
	assert.Equal(t, "Desk lamp", detail.Items[0].ProductName)
	assert.True(t, detail.TotalAmount.Equal(dec("50")))
	assert.Equal(t, shared.PaymentStatusUnpaid, detail.PaymentStatus)
	assert.Nil(t, detail.PaymentDays)
}

func TestPendingSaleDoesNotTouchStock(t *testing.T) {
	f := setupSaleTest(t)
	created := f.createSale(t, StatusPending)

	assert.Equal(t, 10, f.stock(t, f.lamp.ID))
	assert.Equal(t, 50, f.stock(t, f.bulb.ID))

	confirmed := StatusConfirmed
	_, err := f.svc.UpdateSale(context.Background(), created.ID, &UpdateRequest{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, f.lamp.ID), "status changes alone do not move stock")
}

func TestItemChangesOnUncommittedSalesLeaveStock(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := setupSaleTest(t)
			ctx := context.Background()
			created := f.createSale(t, status)
			require.Equal(t, status, created.Status)

			qty := 7
			_, err := f.svc.UpdateItem(ctx, created.ID, created.Items[0].ID, &ItemUpdateRequest{Quantity: &qty})
			require.NoError(t, err)
			assert.Equal(t, 10, f.stock(t, f.lamp.ID))

			_, err = f.svc.AddItem(ctx, created.ID, &ItemRequest{ProductID: f.bulb.ID, Quantity: 4, UnitPrice: dec("3")})
			require.NoError(t, err)
			assert.Equal(t, 50, f.stock(t, f.bulb.ID))

			_, err = f.svc.DeleteItem(ctx, created.ID, created.Items[1].ID)
			require.NoError(t, err)
			assert.Equal(t, 10, f.stock(t, f.lamp.ID))
			assert.Equal(t, 50, f.stock(t, f.bulb.ID))
		})
	}
}

func TestConfirmedSaleItemsDrawOnStock(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusConfirmed)

	assert.Equal(t, 8, f.stock(t, f.lamp.ID))
	assert.Equal(t, 45, f.stock(t, f.bulb.ID))

	qty := 6
	_, err := f.svc.UpdateItem(ctx, created.ID, created.Items[0].ID, &ItemUpdateRequest{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 4, f.stock(t, f.lamp.ID))

	qty = 1
	_, err = f.svc.UpdateItem(ctx, created.ID, created.Items[0].ID, &ItemUpdateRequest{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 9, f.stock(t, f.lamp.ID))

	detail, err := f.svc.DeleteItem(ctx, created.ID, created.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, f.stock(t, f.bulb.ID))
	assert.Len(t, detail.Items, 1)

	_, err = f.svc.AddItem(ctx, created.ID, &ItemRequest{ProductID: f.lamp.ID, Quantity: 12, UnitPrice: dec("20")})
	require.NoError(t, err)
	assert.Equal(t, -3, f.stock(t, f.lamp.ID), "stock may go negative")
}

func TestSalePaymentsAndPaymentDays(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusShipped)

	_, err := f.svc.AddPayment(ctx, created.ID, &PaymentRequest{Amount: dec("20"), PaymentMethod: shared.PaymentMethodMobileMoney})
	require.NoError(t, err)

	detail, err := f.svc.GetSale(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.PaymentStatusPartial, detail.PaymentStatus)
	assert.True(t, detail.BalanceDue.Equal(dec("30")))

	_, err = f.svc.MarkDelivered(ctx, created.ID)
	require.NoError(t, err)

	later := today.AddDays(4)
	_, err = f.svc.AddPayment(ctx, created.ID, &PaymentRequest{Amount: dec("30"), PaymentMethod: shared.PaymentMethodCash, PaymentDate: &later})
	require.NoError(t, err)

	detail, err = f.svc.GetSale(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.PaymentStatusPaid, detail.PaymentStatus)
	require.NotNil(t, detail.PaymentDays)
	assert.Equal(t, 4, *detail.PaymentDays)

	detail, err = f.svc.DeletePayment(ctx, created.ID, detail.Payments[1].ID)
	require.NoError(t, err)
	assert.Equal(t, shared.PaymentStatusPartial, detail.PaymentStatus)
	assert.Nil(t, detail.PaymentDays)

	_, err = f.svc.DeletePayment(ctx, created.ID, 9999)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestAddPaymentRejectsAmountsRoundingToZero(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusConfirmed)

	_, err := f.svc.AddPayment(ctx, created.ID, &PaymentRequest{Amount: dec("0.004"), PaymentMethod: shared.PaymentMethodCash})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	payment, err := f.svc.AddPayment(ctx, created.ID, &PaymentRequest{Amount: dec("0.005"), PaymentMethod: shared.PaymentMethodCash})
	require.NoError(t, err)
	assert.True(t, payment.Amount.Equal(dec("0.01")))

	var count int64
	require.NoError(t, f.db.Model(&SalePayment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMarkDeliveredIssuesInvoice(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusConfirmed)

	detail, err := f.svc.MarkDelivered(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, detail.Status)
	require.NotNil(t, detail.ActualDeliveryDate)
	assert.Equal(t, today, *detail.ActualDeliveryDate)

	require.NotNil(t, detail.Invoice)
	assert.Equal(t, "INV-00001", detail.Invoice.InvoiceNumber)
	assert.Equal(t, InvoiceStatusSent, detail.Invoice.Status)
	assert.Equal(t, today, detail.Invoice.IssueDate)
	require.NotNil(t, detail.Invoice.DueDate)
	assert.Equal(t, shared.NewDate(2024, time.April, 9), *detail.Invoice.DueDate)

	assert.Equal(t, 8, f.stock(t, f.lamp.ID), "delivery does not move stock again")

	_, err = f.svc.MarkDelivered(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Equal(t, "sale is already marked as delivered", err.Error())

	var count int64
	require.NoError(t, f.db.Model(&Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMarkDeliveredKeepsExistingInvoice(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusPending)

	draft, err := f.svc.GenerateInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusDraft, draft.Status)

	detail, err := f.svc.MarkDelivered(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Invoice)
	assert.Equal(t, draft.ID, detail.Invoice.ID)
	assert.Equal(t, InvoiceStatusDraft, detail.Invoice.Status)
}

func TestMarkDeliveredRejectsCancelledSale(t *testing.T) {
	f := setupSaleTest(t)
	created := f.createSale(t, StatusCancelled)

	_, err := f.svc.MarkDelivered(context.Background(), created.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	_, err = f.svc.MarkDelivered(context.Background(), created.ID+100)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGenerateInvoice(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusPending)

	inv, err := f.svc.GenerateInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, today.AddDays(30), *inv.DueDate)

	_, err = f.svc.GenerateInvoice(ctx, created.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestInvoiceNumberCollisionIsRetried(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	first := f.createSale(t, StatusPending)
	second := f.createSale(t, StatusPending)

	// A hand-numbered invoice takes the number the sequence would pick next.
	require.NoError(t, f.db.Create(&Invoice{SaleID: first.ID, InvoiceNumber: "INV-00002", IssueDate: today}).Error)

	inv, err := f.svc.GenerateInvoice(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-00003", inv.InvoiceNumber)
}

func TestUpdateSaleRules(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusPending)

	delivered := StatusDelivered
	_, err := f.svc.UpdateSale(ctx, created.ID, &UpdateRequest{Status: &delivered})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	missing := uint(999)
	_, err = f.svc.UpdateSale(ctx, created.ID, &UpdateRequest{CustomerID: &missing})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	ref := "SO-200"
	detail, err := f.svc.UpdateSale(ctx, created.ID, &UpdateRequest{Reference: &ref})
	require.NoError(t, err)
	assert.Equal(t, "SO-200", detail.Reference)

	_, err = f.svc.MarkDelivered(ctx, created.ID)
	require.NoError(t, err)
	pending := StatusPending
	_, err = f.svc.UpdateSale(ctx, created.ID, &UpdateRequest{Status: &pending})
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestListSalesSearchAndFilters(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	f.createSale(t, StatusPending)

	other := partner.Customer{Name: "Moussa Diallo"}
	require.NoError(t, f.db.Create(&other).Error)
	_, err := f.svc.CreateSale(ctx, &CreateRequest{CustomerID: other.ID, Reference: "MD-1", Status: StatusConfirmed}, nil)
	require.NoError(t, err)

	res, err := f.svc.ListSales(ctx, &ListRequest{ListRequest: shared.ListRequest{Search: "moussa"}})
	require.NoError(t, err)
	require.Len(t, res.Sales, 1)
	assert.Equal(t, "MD-1", res.Sales[0].Reference)

	res, err = f.svc.ListSales(ctx, &ListRequest{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, res.Sales, 1)
	assert.Equal(t, "SO-100", res.Sales[0].Reference)

	res, err = f.svc.ListSales(ctx, &ListRequest{CustomerID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Pagination.Total)

	res, err = f.svc.ListSales(ctx, &ListRequest{PaymentStatus: shared.PaymentStatusPaid})
	require.NoError(t, err)
	assert.Empty(t, res.Sales)
}

func TestDeleteSaleRemovesChildren(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()
	created := f.createSale(t, StatusConfirmed)
	_, err := f.svc.AddPayment(ctx, created.ID, &PaymentRequest{Amount: dec("5"), PaymentMethod: shared.PaymentMethodCash})
	require.NoError(t, err)
	_, err = f.svc.GenerateInvoice(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSale(ctx, created.ID))

	for _, model := range []any{&SaleItem{}, &SalePayment{}, &Invoice{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
	assert.Equal(t, 8, f.stock(t, f.lamp.ID), "deleting a sale does not return stock")

	assert.True(t, errors.Is(f.svc.DeleteSale(ctx, created.ID), shared.ErrNotFound))
}

func TestCreateSaleValidation(t *testing.T) {
	f := setupSaleTest(t)
	ctx := context.Background()

	_, err := f.svc.CreateSale(ctx, &CreateRequest{CustomerID: 404}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = f.svc.CreateSale(ctx, &CreateRequest{CustomerID: f.customer.ID, Status: StatusDelivered}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = f.svc.CreateSale(ctx, &CreateRequest{
		CustomerID: f.customer.ID,
		Status:     StatusConfirmed,
		Items:      []ItemRequest{{ProductID: f.lamp.ID, Quantity: 1, UnitPrice: dec("20")}, {ProductID: 404, Quantity: 1}},
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Equal(t, 10, f.stock(t, f.lamp.ID), "failed creation rolls back stock")
}
