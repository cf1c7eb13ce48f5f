// internal/domain/partner/supplier_service.go
package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SupplierService handles supplier records
type SupplierService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewSupplierService creates a new supplier service
func NewSupplierService(db *gorm.DB, log logrus.FieldLogger) *SupplierService {
	return &SupplierService{
		db:  db,
		log: log,
	}
}

var supplierSort = shared.SortSpec{
	Fields: map[string]string{
		"name":       "name",
		"country":    "country",
		"created_at": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: "asc",
}

// SupplierListRequest represents supplier list query parameters
type SupplierListRequest struct {
	shared.ListRequest
	Country string `form:"country"`
}

// SupplierCreateRequest represents supplier creation data
type SupplierCreateRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Country      string `json:"country" binding:"max=100"`
	ContactName  string `json:"contact_name" binding:"max=100"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone" binding:"max=20"`
	PaymentTerms string `json:"payment_terms" binding:"max=100"`
}

// SupplierUpdateRequest represents supplier update data
type SupplierUpdateRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Country      *string `json:"country" binding:"omitempty,max=100"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=100"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=20"`
	PaymentTerms *string `json:"payment_terms" binding:"omitempty,max=100"`
}

// SupplierListResponse represents a page of suppliers
type SupplierListResponse struct {
	Suppliers  []Supplier        `json:"suppliers"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListSuppliers retrieves suppliers with filtering, search and pagination
func (s *SupplierService) ListSuppliers(ctx context.Context, req *SupplierListRequest) (*SupplierListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Supplier{})
	if req.Country != "" {
		query = query.Where("country = ?", req.Country)
	}
	if req.Search != "" {
		search := req.SearchPattern()
		query = query.Where("LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ?", search, search)
	}

	suppliers := []Supplier{}
	pagination, err := shared.Paginate(query, &req.ListRequest, supplierSort.OrderClause(req.SortBy, req.SortOrder), &suppliers)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	return &SupplierListResponse{
		Suppliers:  suppliers,
		Pagination: pagination,
	}, nil
}

// GetSupplier retrieves a single supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, id uint) (*Supplier, error) {
	var supplier Supplier
	if err := s.db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("supplier")
		}
		return nil, fmt.Errorf("failed to retrieve supplier: %w", err)
	}
	return &supplier, nil
}

// CreateSupplier creates a new supplier
func (s *SupplierService) CreateSupplier(ctx context.Context, req *SupplierCreateRequest) (*Supplier, error) {
	supplier := Supplier{
		Name:         req.Name,
		Country:      req.Country,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		PaymentTerms: req.PaymentTerms,
	}

	if err := s.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	return &supplier, nil
}

// UpdateSupplier applies the non-nil fields of req
func (s *SupplierService) UpdateSupplier(ctx context.Context, id uint, req *SupplierUpdateRequest) (*Supplier, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		updates["contact_phone"] = *req.ContactPhone
	}
	if req.PaymentTerms != nil {
		updates["payment_terms"] = *req.PaymentTerms
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(supplier).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update supplier: %w", err)
		}
	}

	return s.GetSupplier(ctx, id)
}

// DeleteSupplier removes a supplier together with its purchases. Products
// keep existing with no supplier.
func (s *SupplierService) DeleteSupplier(ctx context.Context, id uint) error {
	if _, err := s.GetSupplier(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchases := tx.Table("purchases").Select("id").Where("supplier_id = ?", id)

		if err := tx.Exec("DELETE FROM purchase_payments WHERE purchase_id IN (?)", purchases).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM purchase_items WHERE purchase_id IN (?)", purchases).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM purchases WHERE supplier_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("UPDATE products SET supplier_id = NULL WHERE supplier_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Supplier{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}

	s.log.WithField("supplier_id", id).Info("Supplier deleted")
	return nil
}
