// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles the stock ledger and product stock levels
type Service struct {
	db    *gorm.DB
	log   logrus.FieldLogger
	clock shared.Clock
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:    db,
		log:   log,
		clock: time.Now,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(clock shared.Clock) *Service {
	s.clock = clock
	return s
}

var movementSort = shared.SortSpec{
	Fields: map[string]string{
		"date":       "date",
		"quantity":   "quantity",
		"created_at": "created_at",
	},
	DefaultField: "date",
	DefaultOrder: "desc",
}

// MovementListRequest represents stock movement list query parameters
type MovementListRequest struct {
	shared.ListRequest
	ProductID    uint         `form:"product_id"`
	MovementType MovementType `form:"movement_type" binding:"omitempty,oneof=in out adjustment"`
}

// MovementCreateRequest represents stock movement data
type MovementCreateRequest struct {
	ProductID    uint         `json:"product_id" binding:"required"`
	Quantity     int          `json:"quantity" binding:"required"`
	MovementType MovementType `json:"movement_type" binding:"required,oneof=in out adjustment"`
	Reference    string       `json:"reference" binding:"max=100"`
	Date         *time.Time   `json:"date"`
	Notes        string       `json:"notes"`
}

// MovementUpdateRequest only touches descriptive fields; quantities are
// immutable once applied.
type MovementUpdateRequest struct {
	Reference *string    `json:"reference" binding:"omitempty,max=100"`
	Date      *time.Time `json:"date"`
	Notes     *string    `json:"notes"`
}

// MovementListResponse represents a page of movements
type MovementListResponse struct {
	Movements  []StockMovementDetail `json:"movements"`
	Pagination shared.Pagination     `json:"pagination"`
}

// AdjustStock adds delta to a product's stock inside tx and returns the new
// level. The increment is done in SQL so concurrent adjustments do not
// overwrite each other.
func (s *Service) AdjustStock(tx *gorm.DB, productID uint, delta int) (int, error) {
	result := tx.Model(&product.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, shared.NotFound("product")
	}

	var current int
	row := tx.Model(&product.Product{}).Select("stock_quantity").Where("id = ?", productID).Row()
	if err := row.Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"product_id": productID,
		"delta":      delta,
		"stock":      current,
	}).Debug("Stock adjusted")

	return current, nil
}

// ApplyMovement records m in the ledger and applies its delta to the product
// stock, both inside tx.
func (s *Service) ApplyMovement(tx *gorm.DB, m *StockMovement) error {
	if err := validateMovement(m.MovementType, m.Quantity); err != nil {
		return err
	}
	if m.Date.IsZero() {
		m.Date = s.clock.Now()
	}

	newQuantity, err := s.AdjustStock(tx, m.ProductID, m.Delta())
	if err != nil {
		return err
	}
	m.NewQuantity = newQuantity
	m.PreviousQuantity = newQuantity - m.Delta()

	if err := tx.Create(m).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"movement_id":   m.ID,
		"product_id":    m.ProductID,
		"movement_type": m.MovementType,
		"quantity":      m.Quantity,
		"reference":     m.Reference,
	}).Info("Stock movement applied")

	return nil
}

func validateMovement(t MovementType, quantity int) error {
	switch t {
	case MovementTypeIn, MovementTypeOut:
		if quantity <= 0 {
			return shared.Invalid("quantity must be positive for %s movements", t)
		}
	case MovementTypeAdjustment:
		if quantity == 0 {
			return shared.Invalid("adjustment quantity must not be zero")
		}
	default:
		return shared.Invalid("invalid movement type: %s", t)
	}
	return nil
}

// RecordMovement creates a movement and applies it to the product stock
func (s *Service) RecordMovement(ctx context.Context, req *MovementCreateRequest, userID *uint) (*StockMovementDetail, error) {
	movement := &StockMovement{
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		MovementType: req.MovementType,
		Reference:    req.Reference,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	if req.Date != nil {
		movement.Date = *req.Date
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := s.ApplyMovement(tx, movement); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit stock movement: %w", err)
	}

	return s.GetMovement(ctx, movement.ID)
}

// ListMovements retrieves the ledger with filtering and pagination
func (s *Service) ListMovements(ctx context.Context, req *MovementListRequest) (*MovementListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&StockMovement{})
	if req.ProductID > 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.MovementType != "" {
		query = query.Where("movement_type = ?", req.MovementType)
	}
	if req.Search != "" {
		query = query.Where("LOWER(reference) LIKE ?", req.SearchPattern())
	}

	var movements []StockMovement
	pagination, err := shared.Paginate(query, &req.ListRequest, movementSort.OrderClause(req.SortBy, req.SortOrder)+", id desc", &movements,
		func(db *gorm.DB) *gorm.DB { return db.Preload("Product") })
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}

	details := make([]StockMovementDetail, 0, len(movements))
	for _, m := range movements {
		details = append(details, NewStockMovementDetail(m))
	}

	return &MovementListResponse{
		Movements:  details,
		Pagination: pagination,
	}, nil
}

// GetMovement retrieves a single movement by ID
func (s *Service) GetMovement(ctx context.Context, id uint) (*StockMovementDetail, error) {
	var movement StockMovement
	if err := s.db.WithContext(ctx).Preload("Product").First(&movement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("stock movement")
		}
		return nil, fmt.Errorf("failed to retrieve stock movement: %w", err)
	}
	detail := NewStockMovementDetail(movement)
	return &detail, nil
}

// UpdateMovement edits the descriptive fields of a movement
func (s *Service) UpdateMovement(ctx context.Context, id uint, req *MovementUpdateRequest) (*StockMovementDetail, error) {
	if _, err := s.GetMovement(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Reference != nil {
		updates["reference"] = *req.Reference
	}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&StockMovement{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update stock movement: %w", err)
		}
	}

	return s.GetMovement(ctx, id)
}

// DeleteMovement removes a ledger entry. Stock is not reverted; post a
// compensating movement for that.
func (s *Service) DeleteMovement(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&StockMovement{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete stock movement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("stock movement")
	}
	return nil
}
