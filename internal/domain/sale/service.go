// internal/domain/sale/service.go
package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultInvoiceDueDays is the payment term of generated invoices
const DefaultInvoiceDueDays = 30

// Service handles sales, their payments, delivery and invoicing
type Service struct {
	db        *gorm.DB
	inventory *inventory.Service
	log       logrus.FieldLogger
	clock     shared.Clock
	dueDays   int
}

// NewService creates a new sale service
func NewService(db *gorm.DB, inventorySvc *inventory.Service, cfg *config.Config, log logrus.FieldLogger) *Service {
	dueDays := DefaultInvoiceDueDays
	if cfg != nil {
		dueDays = cfg.Business.InvoiceDueDays
	}
	return &Service{
		db:        db,
		inventory: inventorySvc,
		log:       log,
		clock:     time.Now,
		dueDays:   dueDays,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(clock shared.Clock) *Service {
	s.clock = clock
	return s
}

var saleSort = shared.SortSpec{
	Fields: map[string]string{
		"sale_date":  "sale_date",
		"created_at": "created_at",
	},
	DefaultField: "sale_date",
	DefaultOrder: "desc",
}

// ListRequest represents sale list query parameters
type ListRequest struct {
	shared.ListRequest
	CustomerID    uint                 `form:"customer_id"`
	Status        Status               `form:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
	PaymentStatus shared.PaymentStatus `form:"payment_status" binding:"omitempty,oneof=unpaid partial paid"`
}

// ItemRequest represents one sale line
type ItemRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"gte=0"`
	Discount  decimal.Decimal `json:"discount" binding:"gte=0"`
}

// ItemUpdateRequest represents sale line update data
type ItemUpdateRequest struct {
	Quantity  *int             `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"omitempty,gte=0"`
	Discount  *decimal.Decimal `json:"discount" binding:"omitempty,gte=0"`
}

// CreateRequest represents sale creation data
type CreateRequest struct {
	CustomerID           uint          `json:"customer_id" binding:"required"`
	Reference            string        `json:"reference" binding:"max=50"`
	SaleDate             *shared.Date  `json:"sale_date"`
	ExpectedDeliveryDate *shared.Date  `json:"expected_delivery_date"`
	Status               Status        `json:"status" binding:"omitempty,oneof=pending confirmed shipped cancelled"`
	Notes                string        `json:"notes"`
	Items                []ItemRequest `json:"items" binding:"dive"`
}

// UpdateRequest represents sale update data
type UpdateRequest struct {
	CustomerID           *uint        `json:"customer_id"`
	Reference            *string      `json:"reference" binding:"omitempty,max=50"`
	SaleDate             *shared.Date `json:"sale_date"`
	ExpectedDeliveryDate *shared.Date `json:"expected_delivery_date"`
	Status               *Status      `json:"status" binding:"omitempty,oneof=pending confirmed shipped cancelled"`
	Notes                *string      `json:"notes"`
}

// PaymentRequest represents a payment to record
type PaymentRequest struct {
	Amount        decimal.Decimal      `json:"amount" binding:"required,gt=0"`
	PaymentDate   *shared.Date         `json:"payment_date"`
	PaymentMethod shared.PaymentMethod `json:"payment_method" binding:"required,oneof=cash bank_transfer check mobile_money other"`
	Reference     string               `json:"reference" binding:"max=100"`
	Notes         string               `json:"notes"`
}

// ListResponse represents a page of sales
type ListResponse struct {
	Sales      []SaleDetail      `json:"sales"`
	Pagination shared.Pagination `json:"pagination"`
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, id ASC") }).
		Preload("Invoice")
}

// ListSales retrieves sales with filtering, search and pagination
func (s *Service) ListSales(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Sale{})
	if req.CustomerID > 0 {
		query = query.Where("customer_id = ?", req.CustomerID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.Search != "" {
		search := req.SearchPattern()
		customers := s.db.WithContext(ctx).Model(&partner.Customer{}).Select("id").Where("LOWER(name) LIKE ?", search)
		query = query.Where("LOWER(reference) LIKE ? OR customer_id IN (?)", search, customers)
	}

	var sales []Sale
	pagination, err := shared.Paginate(query, &req.ListRequest, saleSort.OrderClause(req.SortBy, req.SortOrder)+", id desc", &sales, withDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	details := make([]SaleDetail, 0, len(sales))
	for _, sale := range sales {
		details = append(details, NewSaleDetail(sale))
	}

	return &ListResponse{
		Sales:      details,
		Pagination: pagination,
	}, nil
}

// GetSale retrieves a sale with its items, payments and invoice
func (s *Service) GetSale(ctx context.Context, id uint) (*SaleDetail, error) {
	sale, err := findSale(s.db.WithContext(ctx).Scopes(withDetails), id)
	if err != nil {
		return nil, err
	}
	detail := NewSaleDetail(*sale)
	return &detail, nil
}

func findSale(db *gorm.DB, id uint) (*Sale, error) {
	var sale Sale
	if err := db.First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("sale")
		}
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}
	return &sale, nil
}

// CreateSale creates a sale with its lines. Lines of a confirmed or shipped
// sale are taken out of stock immediately.
func (s *Service) CreateSale(ctx context.Context, req *CreateRequest, userID *uint) (*SaleDetail, error) {
	if req.Status == StatusDelivered {
		return nil, shared.Invalid("use the deliver action to mark a sale as delivered")
	}

	sale := Sale{
		CustomerID:           req.CustomerID,
		Reference:            req.Reference,
		SaleDate:             s.clock.Today(),
		Status:               StatusPending,
		PaymentStatus:        shared.PaymentStatusUnpaid,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Notes:                req.Notes,
		CreatedBy:            userID,
	}
	if req.SaleDate != nil && !req.SaleDate.IsZero() {
		sale.SaleDate = *req.SaleDate
	}
	if req.Status != "" {
		sale.Status = req.Status
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCustomer(tx, req.CustomerID); err != nil {
			return err
		}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		for i := range req.Items {
			if _, err := s.insertItem(tx, &sale, &req.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"sale_id":     sale.ID,
		"customer_id": sale.CustomerID,
		"status":      sale.Status,
		"items":       len(req.Items),
	}).Info("Sale created")

	return s.GetSale(ctx, sale.ID)
}

// UpdateSale applies the non-nil fields of req. Changing the status alone
// does not move stock.
func (s *Service) UpdateSale(ctx context.Context, id uint, req *UpdateRequest) (*SaleDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := findSale(tx, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.CustomerID != nil {
			if err := checkCustomer(tx, *req.CustomerID); err != nil {
				return err
			}
			updates["customer_id"] = *req.CustomerID
		}
		if req.Reference != nil {
			updates["reference"] = *req.Reference
		}
		if req.SaleDate != nil && !req.SaleDate.IsZero() {
			updates["sale_date"] = *req.SaleDate
		}
		if req.ExpectedDeliveryDate != nil {
			if req.ExpectedDeliveryDate.IsZero() {
				updates["expected_delivery_date"] = nil
			} else {
				updates["expected_delivery_date"] = *req.ExpectedDeliveryDate
			}
		}
		if req.Status != nil && *req.Status != sale.Status {
			switch {
			case *req.Status == StatusDelivered:
				return shared.Invalid("use the deliver action to mark a sale as delivered")
			case sale.Status == StatusDelivered:
				return shared.InvalidState("delivered sales cannot change status")
			}
			updates["status"] = *req.Status
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(sale).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetSale(ctx, id)
}

// DeleteSale removes a sale with its items, payments and invoice
func (s *Service) DeleteSale(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findSale(tx, id); err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", id).Delete(&Invoice{}).Error; err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		if err := tx.Where("sale_id = ?", id).Delete(&SalePayment{}).Error; err != nil {
			return fmt.Errorf("failed to delete sale payments: %w", err)
		}
		if err := tx.Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete sale items: %w", err)
		}
		if err := tx.Delete(&Sale{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("sale_id", id).Info("Sale deleted")
	return nil
}

// AddItem appends a line to a sale
func (s *Service) AddItem(ctx context.Context, saleID uint, req *ItemRequest) (*SaleDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := findSale(tx, saleID)
		if err != nil {
			return err
		}
		if _, err := s.insertItem(tx, sale, req); err != nil {
			return err
		}
		_, err = s.reconcile(tx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

// UpdateItem changes a sale line. A quantity change on a sale that commits
// stock moves the difference out of (or back into) stock.
func (s *Service) UpdateItem(ctx context.Context, saleID, itemID uint, req *ItemUpdateRequest) (*SaleDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := findSale(tx, saleID)
		if err != nil {
			return err
		}
		item, err := findItem(tx, saleID, itemID)
		if err != nil {
			return err
		}
		previous := item.Quantity

		updates := make(map[string]interface{})
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return shared.Invalid("quantity must be positive")
			}
			updates["quantity"] = *req.Quantity
			item.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			if req.UnitPrice.IsNegative() {
				return shared.Invalid("unit_price must not be negative")
			}
			updates["unit_price"] = shared.Money(*req.UnitPrice)
		}
		if req.Discount != nil {
			if req.Discount.IsNegative() {
				return shared.Invalid("discount must not be negative")
			}
			updates["discount"] = shared.Money(*req.Discount)
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&SaleItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update sale item: %w", err)
		}
		if err := s.commitStock(tx, sale, item.ProductID, item.Quantity-previous); err != nil {
			return err
		}
		_, err = s.reconcile(tx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

// DeleteItem removes a sale line, returning its quantity to stock when the
// sale had committed it.
func (s *Service) DeleteItem(ctx context.Context, saleID, itemID uint) (*SaleDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := findSale(tx, saleID)
		if err != nil {
			return err
		}
		item, err := findItem(tx, saleID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to delete sale item: %w", err)
		}
		if err := s.commitStock(tx, sale, item.ProductID, -item.Quantity); err != nil {
			return err
		}
		_, err = s.reconcile(tx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

// AddPayment records a customer payment and recomputes the payment status
// in the same transaction.
func (s *Service) AddPayment(ctx context.Context, saleID uint, req *PaymentRequest) (*SalePayment, error) {
	amount := shared.Money(req.Amount)
	if !amount.IsPositive() {
		return nil, shared.Invalid("amount must be positive")
	}
	if !req.PaymentMethod.IsValid() {
		return nil, shared.Invalid("invalid payment method: %s", req.PaymentMethod)
	}

	payment := SalePayment{
		SaleID:        saleID,
		PaymentDate:   s.clock.Today(),
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		Notes:         req.Notes,
	}
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		payment.PaymentDate = *req.PaymentDate
	}

	var status shared.PaymentStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findSale(tx, saleID); err != nil {
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		var err error
		status, err = s.reconcile(tx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"sale_id":        saleID,
		"payment_id":     payment.ID,
		"amount":         payment.Amount.String(),
		"payment_status": status,
	}).Info("Sale payment recorded")

	return &payment, nil
}

// DeletePayment removes a payment and recomputes the payment status
func (s *Service) DeletePayment(ctx context.Context, saleID, paymentID uint) (*SaleDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("sale_id = ?", saleID).Delete(&SalePayment{}, paymentID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NotFound("payment")
		}
		_, err := s.reconcile(tx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

// MarkDelivered closes the sale as delivered today and issues its invoice
// (status sent) unless one already exists.
func (s *Service) MarkDelivered(ctx context.Context, saleID uint) (*SaleDetail, error) {
	today := s.clock.Today()

	var issued *Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := findSale(tx.Preload("Invoice"), saleID)
		if err != nil {
			return err
		}

		switch sale.Status {
		case StatusDelivered:
			return shared.InvalidState("sale is already marked as delivered")
		case StatusCancelled:
			return shared.InvalidState("cancelled sales cannot be delivered")
		}

		updates := map[string]interface{}{
			"status":               StatusDelivered,
			"actual_delivery_date": today,
		}
		if err := tx.Model(&Sale{}).Where("id = ?", saleID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}

		if sale.Invoice == nil {
			issued, err = allocateInvoice(tx, saleID, InvoiceStatusSent, today, s.dueDays)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"sale_id": saleID}
	if issued != nil {
		fields["invoice_number"] = issued.InvoiceNumber
	}
	s.log.WithFields(fields).Info("Sale delivered")

	return s.GetSale(ctx, saleID)
}

// GenerateInvoice issues a draft invoice for a sale that has none yet
func (s *Service) GenerateInvoice(ctx context.Context, saleID uint) (*Invoice, error) {
	today := s.clock.Today()

	var invoice *Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := findSale(tx.Preload("Invoice"), saleID)
		if err != nil {
			return err
		}
		if sale.Invoice != nil {
			return shared.InvalidState("an invoice already exists for this sale")
		}
		invoice, err = allocateInvoice(tx, saleID, InvoiceStatusDraft, today, s.dueDays)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"sale_id":        saleID,
		"invoice_number": invoice.InvoiceNumber,
	}).Info("Invoice generated")

	return invoice, nil
}

// insertItem creates a line and, when the sale commits stock, takes its
// quantity out of stock.
func (s *Service) insertItem(tx *gorm.DB, sale *Sale, req *ItemRequest) (*SaleItem, error) {
	if req.Quantity <= 0 {
		return nil, shared.Invalid("quantity must be positive")
	}
	if req.UnitPrice.IsNegative() || req.Discount.IsNegative() {
		return nil, shared.Invalid("unit_price and discount must not be negative")
	}
	if err := checkProduct(tx, req.ProductID); err != nil {
		return nil, err
	}

	item := SaleItem{
		SaleID:    sale.ID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: shared.Money(req.UnitPrice),
		Discount:  shared.Money(req.Discount),
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create sale item: %w", err)
	}
	if err := s.commitStock(tx, sale, item.ProductID, item.Quantity); err != nil {
		return nil, err
	}
	return &item, nil
}

// commitStock takes quantity units of a product out of stock if the sale's
// status commits stock. A negative quantity returns units.
func (s *Service) commitStock(tx *gorm.DB, sale *Sale, productID uint, quantity int) error {
	if quantity == 0 || !sale.Status.CommitsStock() {
		return nil
	}
	if _, err := s.inventory.AdjustStock(tx, productID, -quantity); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"sale_id":    sale.ID,
		"product_id": productID,
		"quantity":   quantity,
	}).Info("Sale stock committed")
	return nil
}

// reconcile recomputes and stores the payment status of a sale
func (s *Service) reconcile(tx *gorm.DB, saleID uint) (shared.PaymentStatus, error) {
	var items []SaleItem
	if err := tx.Where("sale_id = ?", saleID).Find(&items).Error; err != nil {
		return "", fmt.Errorf("failed to load sale items: %w", err)
	}
	var payments []SalePayment
	if err := tx.Where("sale_id = ?", saleID).Find(&payments).Error; err != nil {
		return "", fmt.Errorf("failed to load sale payments: %w", err)
	}

	sale := Sale{Items: items, Payments: payments}
	status := shared.ReconcilePaymentStatus(sale.TotalPaid(), sale.TotalAmount())

	if err := tx.Model(&Sale{}).Where("id = ?", saleID).Update("payment_status", status).Error; err != nil {
		return "", fmt.Errorf("failed to update payment status: %w", err)
	}
	return status, nil
}

func findItem(tx *gorm.DB, saleID, itemID uint) (*SaleItem, error) {
	var item SaleItem
	if err := tx.Where("sale_id = ?", saleID).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("sale item")
		}
		return nil, fmt.Errorf("failed to retrieve sale item: %w", err)
	}
	return &item, nil
}

func checkCustomer(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&partner.Customer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check customer: %w", err)
	}
	if count == 0 {
		return shared.Invalid("customer %d does not exist", id)
	}
	return nil
}

func checkProduct(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&product.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return shared.Invalid("product %d does not exist", id)
	}
	return nil
}
