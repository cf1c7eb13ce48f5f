// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	invoices *sale.InvoiceService
	log      logrus.FieldLogger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices *sale.InvoiceService, log logrus.FieldLogger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, log: log}
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var req sale.InvoiceListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.invoices.ListInvoices(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoices retrieved successfully", resp)
}

// GetInvoice handles GET /invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	detail, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoice retrieved successfully", detail)
}

// UpdateInvoice handles PUT /invoices/:id
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}
	var req sale.InvoiceUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.invoices.UpdateInvoice(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoice updated successfully", detail)
}

// DeleteInvoice handles DELETE /invoices/:id
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoice deleted successfully", nil)
}

// MarkSent handles POST /invoices/:id/mark-sent
func (h *InvoiceHandler) MarkSent(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	detail, err := h.invoices.MarkSent(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoice marked as sent", detail)
}

// MarkPaid handles POST /invoices/:id/mark-paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	detail, err := h.invoices.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoice marked as paid", detail)
}

// DownloadPDF handles GET /invoices/:id/pdf
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	buf, filename, err := h.invoices.RenderPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// SendEmail handles POST /invoices/:id/email
func (h *InvoiceHandler) SendEmail(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	detail, err := h.invoices.EmailInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Invoice emailed successfully", detail)
}
