// internal/domain/sale/entity.go
package sale

import (
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the fulfilment state of a sale
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CommitsStock reports whether items of a sale in this status draw on stock
func (s Status) CommitsStock() bool {
	return s == StatusConfirmed || s == StatusShipped || s == StatusDelivered
}

// Sale is an order placed by a customer
type Sale struct {
	ID                   uint                 `gorm:"primaryKey" json:"id"`
	CustomerID           uint                 `gorm:"not null;index" json:"customer_id"`
	Reference            string               `gorm:"size:50;index" json:"reference"`
	SaleDate             shared.Date          `gorm:"not null;index" json:"sale_date"`
	Status               Status               `gorm:"not null;size:20;default:'pending';index" json:"status"`
	PaymentStatus        shared.PaymentStatus `gorm:"not null;size:20;default:'unpaid';index" json:"payment_status"`
	ExpectedDeliveryDate *shared.Date         `json:"expected_delivery_date"`
	ActualDeliveryDate   *shared.Date         `json:"actual_delivery_date"`
	Notes                string               `gorm:"type:text" json:"notes"`
	CreatedBy            *uint                `json:"created_by,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`

	// Relationships
	Customer *partner.Customer `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Items    []SaleItem        `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Payments []SalePayment     `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Invoice  *Invoice          `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one line of a sale
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"not null;index" json:"sale_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Discount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relationships
	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name
func (SaleItem) TableName() string {
	return "sale_items"
}

// SalePayment is money received from the customer
type SalePayment struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	SaleID        uint                 `gorm:"not null;index" json:"sale_id"`
	PaymentDate   shared.Date          `gorm:"not null" json:"payment_date"`
	Amount        decimal.Decimal      `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod shared.PaymentMethod `gorm:"not null;size:20" json:"payment_method"`
	Reference     string               `gorm:"size:100" json:"reference"`
	Notes         string               `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// TableName overrides the table name
func (SalePayment) TableName() string {
	return "sale_payments"
}

// Business methods

// TotalPrice returns quantity times unit price less the line discount
func (i *SaleItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.Discount)
}

// TotalAmount sums the item totals
func (s *Sale) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Items {
		total = total.Add(s.Items[i].TotalPrice())
	}
	return total
}

// TotalPaid sums the payments
func (s *Sale) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, payment := range s.Payments {
		total = total.Add(payment.Amount)
	}
	return total
}

// BalanceDue returns what the customer still owes
func (s *Sale) BalanceDue() decimal.Decimal {
	return s.TotalAmount().Sub(s.TotalPaid())
}

// LastPaymentDate returns the most recent payment date, if any
func (s *Sale) LastPaymentDate() *shared.Date {
	var last *shared.Date
	for i := range s.Payments {
		d := s.Payments[i].PaymentDate
		if last == nil || last.Before(d) {
			last = &d
		}
	}
	return last
}

// PaymentDays returns how many days after delivery the sale was fully paid.
// It is nil until the sale is paid and delivered.
func (s *Sale) PaymentDays() *int {
	if s.PaymentStatus != shared.PaymentStatusPaid || s.ActualDeliveryDate == nil {
		return nil
	}
	last := s.LastPaymentDate()
	if last == nil {
		return nil
	}
	days := last.DaysSince(*s.ActualDeliveryDate)
	return &days
}

// SaleItemDetail is a sale line with its computed total
type SaleItemDetail struct {
	SaleItem
	ProductName string          `json:"product_name"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// SaleDetail is the read model returned by the API
type SaleDetail struct {
	Sale
	CustomerName string           `json:"customer_name"`
	Items        []SaleItemDetail `json:"items"`
	Payments     []SalePayment    `json:"payments"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	TotalPaid    decimal.Decimal  `json:"total_paid"`
	BalanceDue   decimal.Decimal  `json:"balance_due"`
	PaymentDays  *int             `json:"payment_days"`
	Invoice      *Invoice         `json:"invoice,omitempty"`
}

// NewSaleDetail derives the computed fields of s
func NewSaleDetail(s Sale) SaleDetail {
	detail := SaleDetail{
		Sale:        s,
		Items:       make([]SaleItemDetail, 0, len(s.Items)),
		Payments:    s.Payments,
		TotalAmount: s.TotalAmount(),
		TotalPaid:   s.TotalPaid(),
		BalanceDue:  s.BalanceDue(),
		PaymentDays: s.PaymentDays(),
		Invoice:     s.Invoice,
	}
	if detail.Payments == nil {
		detail.Payments = []SalePayment{}
	}
	if s.Customer != nil {
		detail.CustomerName = s.Customer.Name
	}
	for _, item := range s.Items {
		line := SaleItemDetail{SaleItem: item, TotalPrice: item.TotalPrice()}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		detail.Items = append(detail.Items, line)
	}
	return detail
}
