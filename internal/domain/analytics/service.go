// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/purchase"
	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultWindowDays is the trailing period covered by the monthly summaries
const DefaultWindowDays = 180

// Service builds the read-only dashboard views
type Service struct {
	db         *gorm.DB
	products   *product.Service
	log        logrus.FieldLogger
	clock      shared.Clock
	windowDays int
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, products *product.Service, cfg *config.Config, log logrus.FieldLogger) *Service {
	windowDays := DefaultWindowDays
	if cfg != nil && cfg.Business.DashboardWindowDays > 0 {
		windowDays = cfg.Business.DashboardWindowDays
	}
	return &Service{
		db:         db,
		products:   products,
		log:        log,
		clock:      time.Now,
		windowDays: windowDays,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(clock shared.Clock) *Service {
	s.clock = clock
	return s
}

// SupplierPayment is an outstanding purchase
type SupplierPayment struct {
	ID             uint                 `json:"id"`
	SupplierName   string               `json:"supplier_name"`
	OrderDate      shared.Date          `json:"order_date"`
	PaymentDueDate *shared.Date         `json:"payment_due_date"`
	PaymentStatus  shared.PaymentStatus `json:"payment_status"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	TotalPaid      decimal.Decimal      `json:"total_paid"`
	BalanceDue     decimal.Decimal      `json:"balance_due"`
	IsOverdue      bool                 `json:"is_overdue"`
}

// CustomerPayment is an outstanding sale
type CustomerPayment struct {
	ID                 uint                 `json:"id"`
	CustomerName       string               `json:"customer_name"`
	SaleDate           shared.Date          `json:"sale_date"`
	ActualDeliveryDate *shared.Date         `json:"actual_delivery_date"`
	PaymentStatus      shared.PaymentStatus `json:"payment_status"`
	TotalAmount        decimal.Decimal      `json:"total_amount"`
	TotalPaid          decimal.Decimal      `json:"total_paid"`
	BalanceDue         decimal.Decimal      `json:"balance_due"`
	DaysSinceDelivery  *int                 `json:"days_since_delivery"`
}

// MonthlyBucket aggregates the records of one calendar month
type MonthlyBucket struct {
	Month shared.Date     `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// StatusCount is the number of records in one payment status
type StatusCount struct {
	PaymentStatus shared.PaymentStatus `json:"payment_status"`
	Count         int64                `json:"count"`
}

// Summary is the monthly view of sales or purchases
type Summary struct {
	From            shared.Date     `json:"from"`
	Monthly         []MonthlyBucket `json:"monthly"`
	ByPaymentStatus []StatusCount   `json:"by_payment_status"`
}

var outstanding = []shared.PaymentStatus{shared.PaymentStatusUnpaid, shared.PaymentStatusPartial}

// SupplierPayments lists purchases that are not fully paid, oldest first
func (s *Service) SupplierPayments(ctx context.Context) ([]SupplierPayment, error) {
	var purchases []purchase.Purchase
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items").
		Preload("Payments").
		Where("payment_status IN ?", outstanding).
		Order("order_date ASC, id ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve supplier payments: %w", err)
	}

	today := s.clock.Today()
	rows := make([]SupplierPayment, 0, len(purchases))
	for i := range purchases {
		p := &purchases[i]
		row := SupplierPayment{
			ID:             p.ID,
			OrderDate:      p.OrderDate,
			PaymentDueDate: p.PaymentDueDate,
			PaymentStatus:  p.PaymentStatus,
			TotalAmount:    p.TotalAmount(),
			TotalPaid:      p.TotalPaid(),
			BalanceDue:     p.BalanceDue(),
			IsOverdue:      p.IsOverdue(today),
		}
		if p.Supplier != nil {
			row.SupplierName = p.Supplier.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CustomerPayments lists sales that are not fully paid, oldest first
func (s *Service) CustomerPayments(ctx context.Context) ([]CustomerPayment, error) {
	var sales []sale.Sale
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Payments").
		Where("payment_status IN ?", outstanding).
		Order("sale_date ASC, id ASC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve customer payments: %w", err)
	}

	today := s.clock.Today()
	rows := make([]CustomerPayment, 0, len(sales))
	for i := range sales {
		sl := &sales[i]
		row := CustomerPayment{
			ID:                 sl.ID,
			SaleDate:           sl.SaleDate,
			ActualDeliveryDate: sl.ActualDeliveryDate,
			PaymentStatus:      sl.PaymentStatus,
			TotalAmount:        sl.TotalAmount(),
			TotalPaid:          sl.TotalPaid(),
			BalanceDue:         sl.BalanceDue(),
		}
		if sl.Customer != nil {
			row.CustomerName = sl.Customer.Name
		}
		if sl.ActualDeliveryDate != nil {
			days := today.DaysSince(*sl.ActualDeliveryDate)
			row.DaysSinceDelivery = &days
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LowStockProducts lists products at or below their minimum level
func (s *Service) LowStockProducts(ctx context.Context) ([]product.LowStockProduct, error) {
	return s.products.LowStockProducts(ctx)
}

// SalesSummary buckets the sales of the trailing window by month
func (s *Service) SalesSummary(ctx context.Context) (*Summary, error) {
	from := s.windowStart()

	var sales []sale.Sale
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("sale_date >= ?", from).
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	buckets := newBucketer()
	for i := range sales {
		buckets.add(sales[i].SaleDate, sales[i].TotalAmount())
	}

	byStatus, err := s.countByPaymentStatus(ctx, &sale.Sale{})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"from":    from.String(),
		"records": len(sales),
		"months":  len(buckets),
	}).Debug("Sales summary built")

	return &Summary{From: from, Monthly: buckets.sorted(), ByPaymentStatus: byStatus}, nil
}

// PurchasesSummary buckets the purchases of the trailing window by month
func (s *Service) PurchasesSummary(ctx context.Context) (*Summary, error) {
	from := s.windowStart()

	var purchases []purchase.Purchase
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("order_date >= ?", from).
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve purchases: %w", err)
	}

	buckets := newBucketer()
	for i := range purchases {
		buckets.add(purchases[i].OrderDate, purchases[i].TotalAmount())
	}

	byStatus, err := s.countByPaymentStatus(ctx, &purchase.Purchase{})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"from":    from.String(),
		"records": len(purchases),
		"months":  len(buckets),
	}).Debug("Purchases summary built")

	return &Summary{From: from, Monthly: buckets.sorted(), ByPaymentStatus: byStatus}, nil
}

// windowStart is the first day of the trailing window. Later records,
// including those dated after today, are all counted.
func (s *Service) windowStart() shared.Date {
	return s.clock.Today().AddDays(-s.windowDays)
}

func (s *Service) countByPaymentStatus(ctx context.Context, model any) ([]StatusCount, error) {
	rows := []StatusCount{}
	err := s.db.WithContext(ctx).
		Model(model).
		Select("payment_status, COUNT(*) AS count").
		Group("payment_status").
		Order("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count payment statuses: %w", err)
	}
	return rows, nil
}

// bucketer groups amounts by calendar month
type bucketer map[shared.Date]*MonthlyBucket

func newBucketer() bucketer {
	return make(bucketer)
}

func (b bucketer) add(day shared.Date, amount decimal.Decimal) {
	month := day.MonthStart()
	bucket, ok := b[month]
	if !ok {
		bucket = &MonthlyBucket{Month: month, Total: decimal.Zero}
		b[month] = bucket
	}
	bucket.Total = bucket.Total.Add(amount)
	bucket.Count++
}

func (b bucketer) sorted() []MonthlyBucket {
	out := make([]MonthlyBucket, 0, len(b))
	for _, bucket := range b {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}
