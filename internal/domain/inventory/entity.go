// internal/domain/inventory/entity.go
package inventory

import (
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypeIn         MovementType = "in"         // goods received
	MovementTypeOut        MovementType = "out"        // goods shipped or written off
	MovementTypeAdjustment MovementType = "adjustment" // signed correction after a count
)

// IsValid reports whether the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement is one entry of the stock ledger
type StockMovement struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	ProductID        uint         `gorm:"not null;index" json:"product_id"`
	Quantity         int          `gorm:"not null" json:"quantity"`
	MovementType     MovementType `gorm:"not null;size:20;index" json:"movement_type"`
	Reference        string       `gorm:"size:100" json:"reference"`
	Date             time.Time    `gorm:"not null;index" json:"date"`
	Notes            string       `gorm:"type:text" json:"notes"`
	PreviousQuantity int          `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int          `gorm:"not null" json:"new_quantity"`
	CreatedBy        *uint        `gorm:"index" json:"created_by,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	// Relationships
	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// Delta returns the signed change the movement applies to stock
func (m *StockMovement) Delta() int {
	switch m.MovementType {
	case MovementTypeOut:
		return -m.Quantity
	default:
		return m.Quantity
	}
}

// StockMovementDetail is the read model returned by the API
type StockMovementDetail struct {
	StockMovement
	ProductName string `json:"product_name"`
}

// NewStockMovementDetail attaches the product name to m
func NewStockMovementDetail(m StockMovement) StockMovementDetail {
	detail := StockMovementDetail{StockMovement: m}
	if m.Product != nil {
		detail.ProductName = m.Product.Name
	}
	return detail
}
