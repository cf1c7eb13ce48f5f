// internal/domain/sale/invoice.go
package sale

import (
	"fmt"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the billing state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
)

// InvoiceNumberFormat renders sequential invoice numbers
const InvoiceNumberFormat = "INV-%05d"

// FormatInvoiceNumber returns the invoice number for a sequence value
func FormatInvoiceNumber(seq uint) string {
	return fmt.Sprintf(InvoiceNumberFormat, seq)
}

// Invoice bills a sale; a sale has at most one
type Invoice struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	SaleID        uint          `gorm:"not null;uniqueIndex" json:"sale_id"`
	InvoiceNumber string        `gorm:"not null;size:20;uniqueIndex" json:"invoice_number"`
	IssueDate     shared.Date   `gorm:"not null;index" json:"issue_date"`
	DueDate       *shared.Date  `gorm:"index" json:"due_date"`
	Status        InvoiceStatus `gorm:"not null;size:20;default:'draft';index" json:"status"`
	Notes         string        `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Relationships
	Sale *Sale `gorm:"foreignKey:SaleID" json:"-"`
}

// TableName overrides the table name
func (Invoice) TableName() string {
	return "invoices"
}

// IsOverdue reports an open invoice past its due date
func (i *Invoice) IsOverdue(today shared.Date) bool {
	if i.DueDate == nil {
		return false
	}
	if i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled {
		return false
	}
	return i.DueDate.Before(today)
}

// InvoiceDetail is the read model returned by the API
type InvoiceDetail struct {
	Invoice
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	SaleReference string          `json:"sale_reference"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	IsOverdue     bool            `json:"is_overdue"`
	Sale          *SaleDetail     `json:"sale,omitempty"`
}

// NewInvoiceDetail derives the computed fields of inv. withSale embeds the
// full sale, used for single invoice reads and documents.
func NewInvoiceDetail(inv Invoice, today shared.Date, withSale bool) InvoiceDetail {
	detail := InvoiceDetail{
		Invoice:   inv,
		IsOverdue: inv.IsOverdue(today),
	}
	if inv.Sale != nil {
		detail.SaleReference = inv.Sale.Reference
		detail.TotalAmount = inv.Sale.TotalAmount()
		if inv.Sale.Customer != nil {
			detail.CustomerName = inv.Sale.Customer.Name
			detail.CustomerEmail = inv.Sale.Customer.Email
		}
		if withSale {
			sale := *inv.Sale
			sale.Invoice = nil
			saleDetail := NewSaleDetail(sale)
			detail.Sale = &saleDetail
		}
	}
	return detail
}
