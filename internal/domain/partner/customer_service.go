// internal/domain/partner/customer_service.go
package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CustomerService handles customer records
type CustomerService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewCustomerService creates a new customer service
func NewCustomerService(db *gorm.DB, log logrus.FieldLogger) *CustomerService {
	return &CustomerService{
		db:  db,
		log: log,
	}
}

var customerSort = shared.SortSpec{
	Fields: map[string]string{
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: "asc",
}

// CustomerCreateRequest represents customer creation data
type CustomerCreateRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Phone   string `json:"phone" binding:"max=20"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// CustomerUpdateRequest represents customer update data
type CustomerUpdateRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// CustomerListResponse represents a page of customers
type CustomerListResponse struct {
	Customers  []Customer        `json:"customers"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListCustomers searches customers by name, phone or email
func (s *CustomerService) ListCustomers(ctx context.Context, req *shared.ListRequest) (*CustomerListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Customer{})
	if req.Search != "" {
		search := req.SearchPattern()
		query = query.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", search, search, search)
	}

	customers := []Customer{}
	pagination, err := shared.Paginate(query, req, customerSort.OrderClause(req.SortBy, req.SortOrder), &customers)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return &CustomerListResponse{
		Customers:  customers,
		Pagination: pagination,
	}, nil
}

// GetCustomer retrieves a single customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*Customer, error) {
	var customer Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("customer")
		}
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}
	return &customer, nil
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, req *CustomerCreateRequest) (*Customer, error) {
	customer := Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	}

	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return &customer, nil
}

// UpdateCustomer applies the non-nil fields of req
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uint, req *CustomerUpdateRequest) (*Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(customer).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update customer: %w", err)
		}
	}

	return s.GetCustomer(ctx, id)
}

// DeleteCustomer removes a customer with its sales, their items, payments
// and invoices.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uint) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sales := tx.Table("sales").Select("id").Where("customer_id = ?", id)

		for _, table := range []string{"sale_payments", "sale_items", "invoices"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE sale_id IN (?)", sales).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM sales WHERE customer_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Customer{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	s.log.WithField("customer_id", id).Info("Customer deleted")
	return nil
}
