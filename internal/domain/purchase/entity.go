// internal/domain/purchase/entity.go
package purchase

import (
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents where a purchase order is in its lifecycle
type Status string

const (
	StatusPending   Status = "pending"
	StatusOrdered   Status = "ordered"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// Purchase is an order placed with a supplier
type Purchase struct {
	ID                   uint                 `gorm:"primaryKey" json:"id"`
	SupplierID           uint                 `gorm:"not null;index" json:"supplier_id"`
	Reference            string               `gorm:"size:50;index" json:"reference"`
	OrderDate            shared.Date          `gorm:"not null;index" json:"order_date"`
	ExpectedDeliveryDate *shared.Date         `json:"expected_delivery_date"`
	ActualDeliveryDate   *shared.Date         `json:"actual_delivery_date"`
	Status               Status               `gorm:"not null;size:20;default:'pending';index" json:"status"`
	PaymentStatus        shared.PaymentStatus `gorm:"not null;size:20;default:'unpaid';index" json:"payment_status"`
	PaymentDueDate       *shared.Date         `gorm:"index" json:"payment_due_date"`
	Notes                string               `gorm:"type:text" json:"notes"`
	CreatedBy            *uint                `json:"created_by,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`

	// Relationships
	Supplier *partner.Supplier `gorm:"foreignKey:SupplierID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Items    []PurchaseItem    `gorm:"foreignKey:PurchaseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Payments []PurchasePayment `gorm:"foreignKey:PurchaseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseItem is one order line
type PurchaseItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PurchaseID       uint            `gorm:"not null;index" json:"purchase_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	ReceivedQuantity int             `gorm:"not null;default:0" json:"received_quantity"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relationships
	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name
func (PurchaseItem) TableName() string {
	return "purchase_items"
}

// PurchasePayment is money paid to the supplier
type PurchasePayment struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	PurchaseID    uint                 `gorm:"not null;index" json:"purchase_id"`
	PaymentDate   shared.Date          `gorm:"not null" json:"payment_date"`
	Amount        decimal.Decimal      `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod shared.PaymentMethod `gorm:"not null;size:20" json:"payment_method"`
	Reference     string               `gorm:"size:100" json:"reference"`
	Notes         string               `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// TableName overrides the table name
func (PurchasePayment) TableName() string {
	return "purchase_payments"
}

// Business methods

// TotalPrice returns quantity times unit price
func (i *PurchaseItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalAmount sums the item totals
func (p *Purchase) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Items {
		total = total.Add(p.Items[i].TotalPrice())
	}
	return total
}

// TotalPaid sums the payments
func (p *Purchase) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, payment := range p.Payments {
		total = total.Add(payment.Amount)
	}
	return total
}

// BalanceDue returns what is still owed to the supplier
func (p *Purchase) BalanceDue() decimal.Decimal {
	return p.TotalAmount().Sub(p.TotalPaid())
}

// IsOverdue reports an unpaid purchase whose due date has passed
func (p *Purchase) IsOverdue(today shared.Date) bool {
	if p.PaymentDueDate == nil || p.PaymentStatus == shared.PaymentStatusPaid {
		return false
	}
	return p.PaymentDueDate.Before(today)
}

// CanReceive checks if goods can still be booked in
func (p *Purchase) CanReceive() bool {
	return p.Status == StatusPending || p.Status == StatusOrdered
}

// PurchaseItemDetail is an order line with its computed total
type PurchaseItemDetail struct {
	PurchaseItem
	ProductName string          `json:"product_name"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// PurchaseDetail is the read model returned by the API
type PurchaseDetail struct {
	Purchase
	SupplierName string               `json:"supplier_name"`
	Items        []PurchaseItemDetail `json:"items"`
	Payments     []PurchasePayment    `json:"payments"`
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	TotalPaid    decimal.Decimal      `json:"total_paid"`
	BalanceDue   decimal.Decimal      `json:"balance_due"`
	IsOverdue    bool                 `json:"is_overdue"`
}

// NewPurchaseDetail derives the computed fields of p as of today
func NewPurchaseDetail(p Purchase, today shared.Date) PurchaseDetail {
	detail := PurchaseDetail{
		Purchase:    p,
		Items:       make([]PurchaseItemDetail, 0, len(p.Items)),
		Payments:    p.Payments,
		TotalAmount: p.TotalAmount(),
		TotalPaid:   p.TotalPaid(),
		BalanceDue:  p.BalanceDue(),
		IsOverdue:   p.IsOverdue(today),
	}
	if detail.Payments == nil {
		detail.Payments = []PurchasePayment{}
	}
	if p.Supplier != nil {
		detail.SupplierName = p.Supplier.Name
	}
	for _, item := range p.Items {
		line := PurchaseItemDetail{PurchaseItem: item, TotalPrice: item.TotalPrice()}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		detail.Items = append(detail.Items, line)
	}
	return detail
}
