// internal/interfaces/http/handlers/sale.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SaleHandler handles sale endpoints
type SaleHandler struct {
	sales *sale.Service
	log   logrus.FieldLogger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(sales *sale.Service, log logrus.FieldLogger) *SaleHandler {
	return &SaleHandler{sales: sales, log: log}
}

// ListSales handles GET /sales
func (h *SaleHandler) ListSales(c *gin.Context) {
	var req sale.ListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.sales.ListSales(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sales retrieved successfully", resp)
}

// GetSale handles GET /sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	detail, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sale retrieved successfully", detail)
}

// CreateSale handles POST /sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req sale.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.sales.CreateSale(c.Request.Context(), &req, actorID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Sale created successfully", detail)
}

// UpdateSale handles PUT /sales/:id
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}
	var req sale.UpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.sales.UpdateSale(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sale updated successfully", detail)
}

// DeleteSale handles DELETE /sales/:id
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	if err := h.sales.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sale deleted successfully", nil)
}

// AddItem handles POST /sales/:id/items
func (h *SaleHandler) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}
	var req sale.ItemRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.sales.AddItem(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Item added successfully", detail)
}

// UpdateItem handles PUT /sales/:id/items/:itemId
func (h *SaleHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", "item")
	if !ok {
		return
	}
	var req sale.ItemUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.sales.UpdateItem(c.Request.Context(), id, itemID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item updated successfully", detail)
}

// DeleteItem handles DELETE /sales/:id/items/:itemId
func (h *SaleHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", "item")
	if !ok {
		return
	}

	detail, err := h.sales.DeleteItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item deleted successfully", detail)
}

// AddPayment handles POST /sales/:id/payments
func (h *SaleHandler) AddPayment(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}
	var req sale.PaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.sales.AddPayment(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Payment recorded successfully", payment)
}

// DeletePayment handles DELETE /sales/:id/payments/:paymentId
func (h *SaleHandler) DeletePayment(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "paymentId", "payment")
	if !ok {
		return
	}

	detail, err := h.sales.DeletePayment(c.Request.Context(), id, paymentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Payment deleted successfully", detail)
}

// MarkDelivered handles POST /sales/:id/deliver
func (h *SaleHandler) MarkDelivered(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	detail, err := h.sales.MarkDelivered(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sale marked as delivered", detail)
}

// GenerateInvoice handles POST /sales/:id/invoice
func (h *SaleHandler) GenerateInvoice(c *gin.Context) {
	id, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	invoice, err := h.sales.GenerateInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Invoice generated successfully", invoice)
}
