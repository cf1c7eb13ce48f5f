// internal/domain/purchase/service.go
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles purchase orders, their payments and goods receipt
type Service struct {
	db        *gorm.DB
	inventory *inventory.Service
	log       logrus.FieldLogger
	clock     shared.Clock
}

// NewService creates a new purchase service
func NewService(db *gorm.DB, inventorySvc *inventory.Service, log logrus.FieldLogger) *Service {
	return &Service{
		db:        db,
		inventory: inventorySvc,
		log:       log,
		clock:     time.Now,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(clock shared.Clock) *Service {
	s.clock = clock
	return s
}

var purchaseSort = shared.SortSpec{
	Fields: map[string]string{
		"order_date":       "order_date",
		"payment_due_date": "payment_due_date",
		"created_at":       "created_at",
	},
	DefaultField: "order_date",
	DefaultOrder: "desc",
}

// ListRequest represents purchase list query parameters
type ListRequest struct {
	shared.ListRequest
	SupplierID    uint                 `form:"supplier_id"`
	Status        Status               `form:"status" binding:"omitempty,oneof=pending ordered received cancelled"`
	PaymentStatus shared.PaymentStatus `form:"payment_status" binding:"omitempty,oneof=unpaid partial paid"`
}

// ItemRequest represents one order line
type ItemRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"gte=0"`
}

// ItemUpdateRequest represents order line update data
type ItemUpdateRequest struct {
	Quantity  *int             `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"omitempty,gte=0"`
}

// CreateRequest represents purchase creation data
type CreateRequest struct {
	SupplierID           uint          `json:"supplier_id" binding:"required"`
	Reference            string        `json:"reference" binding:"max=50"`
	OrderDate            *shared.Date  `json:"order_date"`
	ExpectedDeliveryDate *shared.Date  `json:"expected_delivery_date"`
	PaymentDueDate       *shared.Date  `json:"payment_due_date"`
	Status               Status        `json:"status" binding:"omitempty,oneof=pending ordered cancelled"`
	Notes                string        `json:"notes"`
	Items                []ItemRequest `json:"items" binding:"dive"`
}

// UpdateRequest represents purchase update data
type UpdateRequest struct {
	SupplierID           *uint        `json:"supplier_id"`
	Reference            *string      `json:"reference" binding:"omitempty,max=50"`
	OrderDate            *shared.Date `json:"order_date"`
	ExpectedDeliveryDate *shared.Date `json:"expected_delivery_date"`
	PaymentDueDate       *shared.Date `json:"payment_due_date"`
	Status               *Status      `json:"status" binding:"omitempty,oneof=pending ordered cancelled"`
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

// ReceiveRequest maps purchase item IDs to the quantity that arrived
type ReceiveRequest struct {
	ReceivedQuantity map[string]int `json:"received_quantity"`
}

// ListResponse represents a page of purchases
type ListResponse struct {
	Purchases  []PurchaseDetail  `json:"purchases"`
	Pagination shared.Pagination `json:"pagination"`
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, id ASC") })
}

// ListPurchases retrieves purchases with filtering, search and pagination
func (s *Service) ListPurchases(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Purchase{})
	if req.SupplierID > 0 {
		query = query.Where("supplier_id = ?", req.SupplierID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.Search != "" {
		search := req.SearchPattern()
		suppliers := s.db.WithContext(ctx).Model(&partner.Supplier{}).Select("id").Where("LOWER(name) LIKE ?", search)
		query = query.Where("LOWER(reference) LIKE ? OR supplier_id IN (?)", search, suppliers)
	}

	var purchases []Purchase
	pagination, err := shared.Paginate(query, &req.ListRequest, purchaseSort.OrderClause(req.SortBy, req.SortOrder)+", id desc", &purchases, withDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	today := s.clock.Today()
	details := make([]PurchaseDetail, 0, len(purchases))
	for _, p := range purchases {
		details = append(details, NewPurchaseDetail(p, today))
	}

	return &ListResponse{
		Purchases:  details,
		Pagination: pagination,
	}, nil
}

// GetPurchase retrieves a purchase with its items and payments
func (s *Service) GetPurchase(ctx context.Context, id uint) (*PurchaseDetail, error) {
	purchase, err := findPurchase(s.db.WithContext(ctx).Scopes(withDetails), id)
	if err != nil {
		return nil, err
	}
	detail := NewPurchaseDetail(*purchase, s.clock.Today())
	return &detail, nil
}

func findPurchase(db *gorm.DB, id uint) (*Purchase, error) {
	var purchase Purchase
	if err := db.First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("purchase")
		}
		return nil, fmt.Errorf("failed to retrieve purchase: %w", err)
	}
	return &purchase, nil
}

// CreatePurchase creates a purchase with its order lines
func (s *Service) CreatePurchase(ctx context.Context, req *CreateRequest, userID *uint) (*PurchaseDetail, error) {
	if req.Status == StatusReceived {
		return nil, shared.Invalid("use the receive action to mark a purchase as received")
	}

	purchase := Purchase{
		SupplierID:           req.SupplierID,
		Reference:            req.Reference,
		OrderDate:            s.clock.Today(),
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		PaymentDueDate:       req.PaymentDueDate,
		Status:               StatusPending,
		PaymentStatus:        shared.PaymentStatusUnpaid,
		Notes:                req.Notes,
		CreatedBy:            userID,
	}
	if req.OrderDate != nil && !req.OrderDate.IsZero() {
		purchase.OrderDate = *req.OrderDate
	}
	if req.Status != "" {
		purchase.Status = req.Status
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkSupplier(tx, req.SupplierID); err != nil {
			return err
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		for i := range req.Items {
			if _, err := s.insertItem(tx, purchase.ID, &req.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"purchase_id": purchase.ID,
		"supplier_id": purchase.SupplierID,
		"items":       len(req.Items),
	}).Info("Purchase created")

	return s.GetPurchase(ctx, purchase.ID)
}

// UpdatePurchase applies the non-nil fields of req
func (s *Service) UpdatePurchase(ctx context.Context, id uint, req *UpdateRequest) (*PurchaseDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase, err := findPurchase(tx, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.SupplierID != nil {
			if err := checkSupplier(tx, *req.SupplierID); err != nil {
				return err
			}
			updates["supplier_id"] = *req.SupplierID
		}
		if req.Reference != nil {
			updates["reference"] = *req.Reference
		}
		if req.OrderDate != nil && !req.OrderDate.IsZero() {
			updates["order_date"] = *req.OrderDate
		}
		if req.ExpectedDeliveryDate != nil {
			updates["expected_delivery_date"] = nullableDate(req.ExpectedDeliveryDate)
		}
		if req.PaymentDueDate != nil {
			updates["payment_due_date"] = nullableDate(req.PaymentDueDate)
		}
		if req.Status != nil && *req.Status != purchase.Status {
			switch {
			case *req.Status == StatusReceived:
				return shared.Invalid("use the receive action to mark a purchase as received")
			case purchase.Status == StatusReceived:
				return shared.InvalidState("received purchases cannot change status")
			}
			updates["status"] = *req.Status
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(purchase).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetPurchase(ctx, id)
}

// DeletePurchase removes a purchase with its items and payments. Stock that
// was already received stays booked.
func (s *Service) DeletePurchase(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPurchase(tx, id); err != nil {
			return err
		}
		if err := tx.Where("purchase_id = ?", id).Delete(&PurchasePayment{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchase payments: %w", err)
		}
		if err := tx.Where("purchase_id = ?", id).Delete(&PurchaseItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchase items: %w", err)
		}
		if err := tx.Delete(&Purchase{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("purchase_id", id).Info("Purchase deleted")
	return nil
}

// AddItem appends an order line to a purchase that has not been received
func (s *Service) AddItem(ctx context.Context, purchaseID uint, req *ItemRequest) (*PurchaseDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := editablePurchase(tx, purchaseID); err != nil {
			return err
		}
		if _, err := s.insertItem(tx, purchaseID, req); err != nil {
			return err
		}
		_, err := s.reconcile(tx, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, purchaseID)
}

// UpdateItem changes quantity or price of an order line
func (s *Service) UpdateItem(ctx context.Context, purchaseID, itemID uint, req *ItemUpdateRequest) (*PurchaseDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := editablePurchase(tx, purchaseID); err != nil {
			return err
		}
		item, err := findItem(tx, purchaseID, itemID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return shared.Invalid("quantity must be positive")
			}
			updates["quantity"] = *req.Quantity
		}
		if req.UnitPrice != nil {
			if req.UnitPrice.IsNegative() {
				return shared.Invalid("unit_price must not be negative")
			}
			updates["unit_price"] = shared.Money(*req.UnitPrice)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(item).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update purchase item: %w", err)
		}
		_, err = s.reconcile(tx, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, purchaseID)
}

// DeleteItem removes an order line
func (s *Service) DeleteItem(ctx context.Context, purchaseID, itemID uint) (*PurchaseDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := editablePurchase(tx, purchaseID); err != nil {
			return err
		}
		item, err := findItem(tx, purchaseID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to delete purchase item: %w", err)
		}
		_, err = s.reconcile(tx, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, purchaseID)
}

// AddPayment records a payment against a purchase and recomputes its payment
// status in the same transaction.
func (s *Service) AddPayment(ctx context.Context, purchaseID uint, req *PaymentRequest) (*PurchasePayment, error) {
	amount := shared.Money(req.Amount)
	if !amount.IsPositive() {
		return nil, shared.Invalid("amount must be positive")
	}
	if !req.PaymentMethod.IsValid() {
		return nil, shared.Invalid("invalid payment method: %s", req.PaymentMethod)
	}

	payment := PurchasePayment{
		PurchaseID:    purchaseID,
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
		if _, err := findPurchase(tx, purchaseID); err != nil {
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		var err error
		status, err = s.reconcile(tx, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"purchase_id":    purchaseID,
		"payment_id":     payment.ID,
		"amount":         payment.Amount.String(),
		"payment_status": status,
	}).Info("Purchase payment recorded")

	return &payment, nil
}

// DeletePayment removes a payment and recomputes the payment status
func (s *Service) DeletePayment(ctx context.Context, purchaseID, paymentID uint) (*PurchaseDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("purchase_id = ?", purchaseID).Delete(&PurchasePayment{}, paymentID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NotFound("payment")
		}
		_, err := s.reconcile(tx, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, purchaseID)
}

// MarkReceived books the delivered goods into stock. quantities maps item
// IDs to the quantity that arrived; items left out stay unreceived.
func (s *Service) MarkReceived(ctx context.Context, purchaseID uint, req *ReceiveRequest, userID *uint) (*PurchaseDetail, error) {
	quantities := make(map[uint]int, len(req.ReceivedQuantity))
	for key, qty := range req.ReceivedQuantity {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, shared.Invalid("invalid purchase item id %q", key)
		}
		quantities[uint(id)] = qty
	}

	today := s.clock.Today()
	received := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase, err := findPurchase(tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }), purchaseID)
		if err != nil {
			return err
		}

		switch purchase.Status {
		case StatusReceived:
			return shared.InvalidState("purchase is already marked as received")
		case StatusCancelled:
			return shared.InvalidState("cancelled purchases cannot be received")
		}

		updates := map[string]interface{}{
			"status":               StatusReceived,
			"actual_delivery_date": today,
		}
		if err := tx.Model(purchase).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}

		for _, item := range purchase.Items {
			qty := quantities[item.ID]
			if qty <= 0 {
				continue
			}

			movement := &inventory.StockMovement{
				ProductID:    item.ProductID,
				Quantity:     qty,
				MovementType: inventory.MovementTypeIn,
				Reference:    fmt.Sprintf("Purchase #%d", purchase.ID),
				CreatedBy:    userID,
			}
			if err := s.inventory.ApplyMovement(tx, movement); err != nil {
				return err
			}

			if err := tx.Model(&item).Update("received_quantity", qty).Error; err != nil {
				return fmt.Errorf("failed to update received quantity: %w", err)
			}
			received++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"purchase_id":    purchaseID,
		"items_received": received,
	}).Info("Purchase received")

	return s.GetPurchase(ctx, purchaseID)
}

// reconcile recomputes and stores the payment status of a purchase from its
// current items and payments.
func (s *Service) reconcile(tx *gorm.DB, purchaseID uint) (shared.PaymentStatus, error) {
	var items []PurchaseItem
	if err := tx.Where("purchase_id = ?", purchaseID).Find(&items).Error; err != nil {
		return "", fmt.Errorf("failed to load purchase items: %w", err)
	}
	var payments []PurchasePayment
	if err := tx.Where("purchase_id = ?", purchaseID).Find(&payments).Error; err != nil {
		return "", fmt.Errorf("failed to load purchase payments: %w", err)
	}

	p := Purchase{Items: items, Payments: payments}
	status := shared.ReconcilePaymentStatus(p.TotalPaid(), p.TotalAmount())

	if err := tx.Model(&Purchase{}).Where("id = ?", purchaseID).Update("payment_status", status).Error; err != nil {
		return "", fmt.Errorf("failed to update payment status: %w", err)
	}
	return status, nil
}

func (s *Service) insertItem(tx *gorm.DB, purchaseID uint, req *ItemRequest) (*PurchaseItem, error) {
	if req.Quantity <= 0 {
		return nil, shared.Invalid("quantity must be positive")
	}
	if req.UnitPrice.IsNegative() {
		return nil, shared.Invalid("unit_price must not be negative")
	}
	if err := checkProduct(tx, req.ProductID); err != nil {
		return nil, err
	}

	item := PurchaseItem{
		PurchaseID: purchaseID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		UnitPrice:  shared.Money(req.UnitPrice),
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create purchase item: %w", err)
	}
	return &item, nil
}

func editablePurchase(tx *gorm.DB, id uint) (*Purchase, error) {
	purchase, err := findPurchase(tx, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status == StatusReceived {
		return nil, shared.InvalidState("items of a received purchase cannot be changed")
	}
	return purchase, nil
}

func findItem(tx *gorm.DB, purchaseID, itemID uint) (*PurchaseItem, error) {
	var item PurchaseItem
	if err := tx.Where("purchase_id = ?", purchaseID).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("purchase item")
		}
		return nil, fmt.Errorf("failed to retrieve purchase item: %w", err)
	}
	return &item, nil
}

func checkSupplier(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&partner.Supplier{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check supplier: %w", err)
	}
	if count == 0 {
		return shared.Invalid("supplier %d does not exist", id)
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

func nullableDate(d *shared.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return *d
}
