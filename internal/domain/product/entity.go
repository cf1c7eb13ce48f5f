// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// DefaultMinStockLevel is the low stock threshold of a new product
const DefaultMinStockLevel = 5

// Product represents an item the business buys and sells
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null;size:100;index" json:"name"`
	Reference     string          `gorm:"size:50;index" json:"reference"`
	CategoryID    *uint           `gorm:"index" json:"category_id"`
	SupplierID    *uint           `gorm:"index" json:"supplier_id"`
	BuyingPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"buying_price"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"selling_price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	MinStockLevel int             `gorm:"not null" json:"min_stock_level"`
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relationships
	Category *Category         `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Supplier *partner.Supplier `gorm:"foreignKey:SupplierID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}

// Category groups products
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:100;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Category) TableName() string {
	return "product_categories"
}

// IsLowStock reports whether stock is at or below the minimum level
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// Margin returns the markup of the selling price over the buying price in
// percent, or zero when the buying price is not positive.
func (p *Product) Margin() decimal.Decimal {
	if !p.BuyingPrice.IsPositive() {
		return decimal.Zero
	}
	return p.SellingPrice.Sub(p.BuyingPrice).
		Div(p.BuyingPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// ProductDetail is the read model returned by the API
type ProductDetail struct {
	Product
	CategoryName string          `json:"category_name,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
	IsLowStock   bool            `json:"is_low_stock"`
	Margin       decimal.Decimal `json:"margin"`
}

// NewProductDetail derives the computed fields of p
func NewProductDetail(p Product) ProductDetail {
	detail := ProductDetail{
		Product:    p,
		IsLowStock: p.IsLowStock(),
		Margin:     p.Margin(),
	}
	if p.Category != nil {
		detail.CategoryName = p.Category.Name
	}
	if p.Supplier != nil {
		detail.SupplierName = p.Supplier.Name
	}
	return detail
}

// LowStockProduct is the compact row used by the low stock listings
type LowStockProduct struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Reference     string          `json:"reference"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
}
