// internal/interfaces/http/handlers/purchase.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/purchase"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PurchaseHandler handles purchase endpoints
type PurchaseHandler struct {
	purchases *purchase.Service
	log       logrus.FieldLogger
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchases *purchase.Service, log logrus.FieldLogger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, log: log}
}

// ListPurchases handles GET /purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	var req purchase.ListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.purchases.ListPurchases(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Purchases retrieved successfully", resp)
}

// GetPurchase handles GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}

	detail, err := h.purchases.GetPurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Purchase retrieved successfully", detail)
}

// CreatePurchase handles POST /purchases
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req purchase.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.purchases.CreatePurchase(c.Request.Context(), &req, actorID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Purchase created successfully", detail)
}

// UpdatePurchase handles PUT /purchases/:id
func (h *PurchaseHandler) UpdatePurchase(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	var req purchase.UpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.purchases.UpdatePurchase(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Purchase updated successfully", detail)
}

// DeletePurchase handles DELETE /purchases/:id
func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}

	if err := h.purchases.DeletePurchase(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Purchase deleted successfully", nil)
}

// AddItem handles POST /purchases/:id/items
func (h *PurchaseHandler) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	var req purchase.ItemRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.purchases.AddItem(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Item added successfully", detail)
}

// UpdateItem handles PUT /purchases/:id/items/:itemId
func (h *PurchaseHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", "item")
	if !ok {
		return
	}
	var req purchase.ItemUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.purchases.UpdateItem(c.Request.Context(), id, itemID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item updated successfully", detail)
}

// DeleteItem handles DELETE /purchases/:id/items/:itemId
func (h *PurchaseHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", "item")
	if !ok {
		return
	}

	detail, err := h.purchases.DeleteItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item deleted successfully", detail)
}

// AddPayment handles POST /purchases/:id/payments
func (h *PurchaseHandler) AddPayment(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	var req purchase.PaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.purchases.AddPayment(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Payment recorded successfully", payment)
}

// DeletePayment handles DELETE /purchases/:id/payments/:paymentId
func (h *PurchaseHandler) DeletePayment(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "paymentId", "payment")
	if !ok {
		return
	}

	detail, err := h.purchases.DeletePayment(c.Request.Context(), id, paymentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Payment deleted successfully", detail)
}

// MarkReceived handles POST /purchases/:id/receive
func (h *PurchaseHandler) MarkReceived(c *gin.Context) {
	id, ok := parseID(c, "id", "purchase")
	if !ok {
		return
	}
	var req purchase.ReceiveRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	detail, err := h.purchases.MarkReceived(c.Request.Context(), id, &req, actorID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Purchase marked as received", detail)
}
