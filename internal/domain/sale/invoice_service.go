// internal/domain/sale/invoice_service.go
package sale

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxInvoiceNumberAttempts bounds the retries on an invoice number collision
const maxInvoiceNumberAttempts = 5

// InvoiceRenderer turns an invoice into a PDF document
type InvoiceRenderer interface {
	GenerateInvoice(detail *InvoiceDetail) (*bytes.Buffer, error)
}

// InvoiceMessage is an invoice mail ready to be sent
type InvoiceMessage struct {
	To            string
	CustomerName  string
	InvoiceNumber string
	TotalAmount   string
	DueDate       string
	Attachment    []byte
}

// InvoiceMailer delivers invoice mails
type InvoiceMailer interface {
	SendInvoiceEmail(ctx context.Context, msg *InvoiceMessage) error
}

// InvoiceService handles invoices
type InvoiceService struct {
	db       *gorm.DB
	renderer InvoiceRenderer
	mailer   InvoiceMailer
	log      logrus.FieldLogger
	clock    shared.Clock
}

// NewInvoiceService creates a new invoice service. renderer and mailer may be
// nil, in which case the PDF and email actions report an invalid state.
func NewInvoiceService(db *gorm.DB, renderer InvoiceRenderer, mailer InvoiceMailer, log logrus.FieldLogger) *InvoiceService {
	return &InvoiceService{
		db:       db,
		renderer: renderer,
		mailer:   mailer,
		log:      log,
		clock:    time.Now,
	}
}

// WithClock replaces the time source
func (s *InvoiceService) WithClock(clock shared.Clock) *InvoiceService {
	s.clock = clock
	return s
}

var invoiceSort = shared.SortSpec{
	Fields: map[string]string{
		"issue_date":     "issue_date",
		"due_date":       "due_date",
		"invoice_number": "invoice_number",
	},
	DefaultField: "issue_date",
	DefaultOrder: "desc",
}

// InvoiceListRequest represents invoice list query parameters
type InvoiceListRequest struct {
	shared.ListRequest
	Status InvoiceStatus `form:"status" binding:"omitempty,oneof=draft sent paid cancelled overdue"`
}

// InvoiceUpdateRequest represents invoice update data
type InvoiceUpdateRequest struct {
	IssueDate *shared.Date   `json:"issue_date"`
	DueDate   *shared.Date   `json:"due_date"`
	Status    *InvoiceStatus `json:"status" binding:"omitempty,oneof=draft sent paid cancelled overdue"`
	Notes     *string        `json:"notes"`
}

// InvoiceListResponse represents a page of invoices
type InvoiceListResponse struct {
	Invoices   []InvoiceDetail   `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

func withSale(db *gorm.DB) *gorm.DB {
	return db.Preload("Sale").Preload("Sale.Customer").Preload("Sale.Items")
}

func withFullSale(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sale").
		Preload("Sale.Customer").
		Preload("Sale.Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Sale.Items.Product").
		Preload("Sale.Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, id ASC") })
}

// ListInvoices retrieves invoices with filtering, search and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, req *InvoiceListRequest) (*InvoiceListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Invoice{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Search != "" {
		search := req.SearchPattern()
		customers := s.db.WithContext(ctx).Model(&partner.Customer{}).Select("id").Where("LOWER(name) LIKE ?", search)
		sales := s.db.WithContext(ctx).Model(&Sale{}).Select("id").Where("customer_id IN (?)", customers)
		query = query.Where("LOWER(invoice_number) LIKE ? OR sale_id IN (?)", search, sales)
	}

	var invoices []Invoice
	pagination, err := shared.Paginate(query, &req.ListRequest, invoiceSort.OrderClause(req.SortBy, req.SortOrder)+", id desc", &invoices, withSale)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	today := s.clock.Today()
	details := make([]InvoiceDetail, 0, len(invoices))
	for _, inv := range invoices {
		details = append(details, NewInvoiceDetail(inv, today, false))
	}

	return &InvoiceListResponse{
		Invoices:   details,
		Pagination: pagination,
	}, nil
}

// GetInvoice retrieves an invoice with its sale
func (s *InvoiceService) GetInvoice(ctx context.Context, id uint) (*InvoiceDetail, error) {
	inv, err := findInvoice(s.db.WithContext(ctx).Scopes(withFullSale), id)
	if err != nil {
		return nil, err
	}
	detail := NewInvoiceDetail(*inv, s.clock.Today(), true)
	return &detail, nil
}

func findInvoice(db *gorm.DB, id uint) (*Invoice, error) {
	var inv Invoice
	if err := db.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("invoice")
		}
		return nil, fmt.Errorf("failed to retrieve invoice: %w", err)
	}
	return &inv, nil
}

// UpdateInvoice applies the non-nil fields of req
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uint, req *InvoiceUpdateRequest) (*InvoiceDetail, error) {
	updates := make(map[string]interface{})
	if req.IssueDate != nil && !req.IssueDate.IsZero() {
		updates["issue_date"] = *req.IssueDate
	}
	if req.DueDate != nil {
		if req.DueDate.IsZero() {
			updates["due_date"] = nil
		} else {
			updates["due_date"] = *req.DueDate
		}
	}
	if req.Status != nil {
		if !isInvoiceStatus(*req.Status) {
			return nil, shared.Invalid("invalid invoice status: %s", *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}

// DeleteInvoice removes an invoice; the sale is kept
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Invoice{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("invoice")
	}

	s.log.WithField("invoice_id", id).Info("Invoice deleted")
	return nil
}

// MarkSent sets the invoice status to sent
func (s *InvoiceService) MarkSent(ctx context.Context, id uint) (*InvoiceDetail, error) {
	if err := s.update(ctx, id, map[string]interface{}{"status": InvoiceStatusSent}); err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}

// MarkPaid sets the invoice status to paid
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint) (*InvoiceDetail, error) {
	if err := s.update(ctx, id, map[string]interface{}{"status": InvoiceStatusPaid}); err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}

// RenderPDF returns the invoice as a PDF document
func (s *InvoiceService) RenderPDF(ctx context.Context, id uint) (*bytes.Buffer, string, error) {
	if s.renderer == nil {
		return nil, "", shared.InvalidState("PDF rendering is not configured")
	}

	detail, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}

	buf, err := s.renderer.GenerateInvoice(detail)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf, detail.InvoiceNumber + ".pdf", nil
}

// EmailInvoice mails the invoice PDF to the customer and marks it sent
func (s *InvoiceService) EmailInvoice(ctx context.Context, id uint) (*InvoiceDetail, error) {
	if s.mailer == nil {
		return nil, shared.InvalidState("email delivery is not configured")
	}

	detail, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.CustomerEmail == "" {
		return nil, shared.InvalidState("customer has no email address")
	}

	msg := &InvoiceMessage{
		To:            detail.CustomerEmail,
		CustomerName:  detail.CustomerName,
		InvoiceNumber: detail.InvoiceNumber,
		TotalAmount:   detail.TotalAmount.StringFixed(2),
	}
	if detail.DueDate != nil {
		msg.DueDate = detail.DueDate.String()
	}
	if s.renderer != nil {
		buf, err := s.renderer.GenerateInvoice(detail)
		if err != nil {
			return nil, fmt.Errorf("failed to render invoice: %w", err)
		}
		msg.Attachment = buf.Bytes()
	}

	if err := s.mailer.SendInvoiceEmail(ctx, msg); err != nil {
		s.log.WithError(err).WithField("invoice_id", id).Error("Failed to send invoice email")
		return nil, fmt.Errorf("failed to send invoice email: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id":     id,
		"invoice_number": detail.InvoiceNumber,
		"to":             msg.To,
	}).Info("Invoice emailed")

	if detail.Status == InvoiceStatusDraft {
		return s.MarkSent(ctx, id)
	}
	return detail, nil
}

func (s *InvoiceService) update(ctx context.Context, id uint, updates map[string]interface{}) error {
	db := s.db.WithContext(ctx)
	if _, err := findInvoice(db, id); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	if err := db.Model(&Invoice{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

func isInvoiceStatus(status InvoiceStatus) bool {
	switch status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusOverdue:
		return true
	}
	return false
}

// allocateInvoice creates the invoice of a sale inside tx. The number is the
// next id rendered as INV-%05d; a collision on the unique index is retried
// under a savepoint with the following number.
func allocateInvoice(tx *gorm.DB, saleID uint, status InvoiceStatus, today shared.Date, dueDays int) (*Invoice, error) {
	due := today.AddDays(dueDays)

	var next uint
	if err := tx.Model(&Invoice{}).Select("COALESCE(MAX(id), 0) + 1").Row().Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to read invoice sequence: %w", err)
	}

	for attempt := 0; attempt < maxInvoiceNumberAttempts; attempt++ {
		inv := Invoice{
			SaleID:        saleID,
			InvoiceNumber: FormatInvoiceNumber(next + uint(attempt)),
			IssueDate:     today,
			DueDate:       &due,
			Status:        status,
		}

		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&inv).Error
		})
		if err == nil {
			return &inv, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create invoice: %w", err)
		}

		var existing int64
		if err := tx.Model(&Invoice{}).Where("sale_id = ?", saleID).Count(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to check invoice: %w", err)
		}
		if existing > 0 {
			return nil, shared.InvalidState("an invoice already exists for this sale")
		}
	}

	return nil, shared.Conflict("could not allocate an invoice number after %d attempts", maxInvoiceNumberAttempts)
}
