// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	log    logrus.FieldLogger
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		log:    log,
	}
}

var productSort = shared.SortSpec{
	Fields: map[string]string{
		"name":           "name",
		"reference":      "reference",
		"buying_price":   "buying_price",
		"selling_price":  "selling_price",
		"stock_quantity": "stock_quantity",
		"created_at":     "created_at",
	},
	DefaultField: "name",
	DefaultOrder: "asc",
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	shared.ListRequest
	CategoryID uint  `form:"category_id"`
	SupplierID uint  `form:"supplier_id"`
	LowStock   *bool `form:"low_stock"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name          string          `json:"name" binding:"required,max=100"`
	Reference     string          `json:"reference" binding:"max=50"`
	CategoryID    *uint           `json:"category_id"`
	SupplierID    *uint           `json:"supplier_id"`
	BuyingPrice   decimal.Decimal `json:"buying_price" binding:"gte=0"`
	SellingPrice  decimal.Decimal `json:"selling_price" binding:"gte=0"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel *int            `json:"min_stock_level" binding:"omitempty,gte=0"`
	Description   string          `json:"description"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Reference     *string          `json:"reference" binding:"omitempty,max=50"`
	CategoryID    *uint            `json:"category_id"`
	SupplierID    *uint            `json:"supplier_id"`
	BuyingPrice   *decimal.Decimal `json:"buying_price" binding:"omitempty,gte=0"`
	SellingPrice  *decimal.Decimal `json:"selling_price" binding:"omitempty,gte=0"`
	StockQuantity *int             `json:"stock_quantity"`
	MinStockLevel *int             `json:"min_stock_level" binding:"omitempty,gte=0"`
	Description   *string          `json:"description"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products   []ProductDetail   `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Supplier")
}

// ListProducts retrieves products with filtering, search and pagination
func (s *Service) ListProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Product{})
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.SupplierID > 0 {
		query = query.Where("supplier_id = ?", req.SupplierID)
	}
	if req.LowStock != nil {
		if *req.LowStock {
			query = query.Where("stock_quantity <= min_stock_level")
		} else {
			query = query.Where("stock_quantity > min_stock_level")
		}
	}
	if req.Search != "" {
		search := req.SearchPattern()
		query = query.Where("LOWER(name) LIKE ? OR LOWER(reference) LIKE ?", search, search)
	}

	var products []Product
	pagination, err := shared.Paginate(query, &req.ListRequest, productSort.OrderClause(req.SortBy, req.SortOrder), &products, withRelations)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	details := make([]ProductDetail, 0, len(products))
	for _, p := range products {
		details = append(details, NewProductDetail(p))
	}

	return &ProductListResponse{
		Products:   details,
		Pagination: pagination,
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*ProductDetail, error) {
	product, err := s.findProduct(s.db.WithContext(ctx).Scopes(withRelations), id)
	if err != nil {
		return nil, err
	}
	detail := NewProductDetail(*product)
	return &detail, nil
}

func (s *Service) findProduct(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	if err := db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("product")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*ProductDetail, error) {
	db := s.db.WithContext(ctx)
	if err := s.checkReferences(db, req.CategoryID, req.SupplierID); err != nil {
		return nil, err
	}
	if req.BuyingPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, shared.Invalid("prices must not be negative")
	}

	minStock := s.defaultMinStock()
	if req.MinStockLevel != nil {
		minStock = *req.MinStockLevel
	}

	product := Product{
		Name:          req.Name,
		Reference:     req.Reference,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		BuyingPrice:   shared.Money(req.BuyingPrice),
		SellingPrice:  shared.Money(req.SellingPrice),
		StockQuantity: req.StockQuantity,
		MinStockLevel: minStock,
		Description:   req.Description,
	}

	if err := db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies the non-nil fields of req
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*ProductDetail, error) {
	db := s.db.WithContext(ctx)
	product, err := s.findProduct(db, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(db, req.CategoryID, req.SupplierID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Reference != nil {
		updates["reference"] = *req.Reference
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if req.BuyingPrice != nil {
		if req.BuyingPrice.IsNegative() {
			return nil, shared.Invalid("buying_price must not be negative")
		}
		updates["buying_price"] = shared.Money(*req.BuyingPrice)
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return nil, shared.Invalid("selling_price must not be negative")
		}
		updates["selling_price"] = shared.Money(*req.SellingPrice)
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.MinStockLevel != nil {
		updates["min_stock_level"] = *req.MinStockLevel
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetProduct(ctx, id)
}

// lineOwner describes a document table whose lines reference products
type lineOwner struct {
	table      string
	items      string
	payments   string
	foreignKey string
	lineTotal  string
}

var lineOwners = []lineOwner{
	{"purchases", "purchase_items", "purchase_payments", "purchase_id", "quantity * unit_price"},
	{"sales", "sale_items", "sale_payments", "sale_id", "quantity * unit_price - discount"},
}

// DeleteProduct removes a product together with the purchase lines, sale
// lines and stock movements that reference it. Purchases and sales that lost
// a line get their payment status recomputed.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.findProduct(tx, id); err != nil {
			return err
		}

		for _, owner := range lineOwners {
			var parents []uint
			if err := tx.Table(owner.items).Distinct(owner.foreignKey).
				Where("product_id = ?", id).Pluck(owner.foreignKey, &parents).Error; err != nil {
				return fmt.Errorf("failed to find %s of product: %w", owner.items, err)
			}

			result := tx.Exec("DELETE FROM "+owner.items+" WHERE product_id = ?", id)
			if result.Error != nil {
				return fmt.Errorf("failed to delete %s: %w", owner.items, result.Error)
			}
			removed += result.RowsAffected

			for _, parentID := range parents {
				if err := reconcileOwner(tx, owner, parentID); err != nil {
					return err
				}
			}
		}

		result := tx.Exec("DELETE FROM stock_movements WHERE product_id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete stock movements: %w", result.Error)
		}
		removed += result.RowsAffected

		if err := tx.Delete(&Product{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"product_id":   id,
		"rows_removed": removed,
	}).Info("Product deleted")
	return nil
}

// reconcileOwner recomputes the payment status of one purchase or sale from
// its remaining lines and payments
func reconcileOwner(tx *gorm.DB, owner lineOwner, parentID uint) error {
	var totals struct {
		Amount decimal.Decimal
		Paid   decimal.Decimal
	}
	err := tx.Raw(
		"SELECT "+
			"(SELECT COALESCE(SUM("+owner.lineTotal+"), 0) FROM "+owner.items+" WHERE "+owner.foreignKey+" = ?) AS amount, "+
			"(SELECT COALESCE(SUM(amount), 0) FROM "+owner.payments+" WHERE "+owner.foreignKey+" = ?) AS paid",
		parentID, parentID,
	).Scan(&totals).Error
	if err != nil {
		return fmt.Errorf("failed to total %s %d: %w", owner.table, parentID, err)
	}

	status := shared.ReconcilePaymentStatus(shared.Money(totals.Paid), shared.Money(totals.Amount))
	if err := tx.Table(owner.table).Where("id = ?", parentID).Update("payment_status", status).Error; err != nil {
		return fmt.Errorf("failed to update payment status of %s %d: %w", owner.table, parentID, err)
	}
	return nil
}

// LowStockProducts lists products whose stock is at or below their minimum
// level, lowest stock first.
func (s *Service) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	rows := []LowStockProduct{}
	err := s.db.WithContext(ctx).
		Model(&Product{}).
		Select("id, name, reference, selling_price, stock_quantity, min_stock_level").
		Where("stock_quantity <= min_stock_level").
		Order("stock_quantity ASC, name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve low stock products: %w", err)
	}
	return rows, nil
}

func (s *Service) checkReferences(db *gorm.DB, categoryID, supplierID *uint) error {
	if categoryID != nil {
		var count int64
		if err := db.Model(&Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check category: %w", err)
		}
		if count == 0 {
			return shared.Invalid("category %d does not exist", *categoryID)
		}
	}
	if supplierID != nil {
		var count int64
		if err := db.Model(&partner.Supplier{}).Where("id = ?", *supplierID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check supplier: %w", err)
		}
		if count == 0 {
			return shared.Invalid("supplier %d does not exist", *supplierID)
		}
	}
	return nil
}

func (s *Service) defaultMinStock() int {
	if s.config != nil && s.config.Business.DefaultMinStock > 0 {
		return s.config.Business.DefaultMinStock
	}
	return DefaultMinStockLevel
}
