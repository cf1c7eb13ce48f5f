// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StockMovementHandler handles the stock ledger endpoints
type StockMovementHandler struct {
	inventory *inventory.Service
	log       logrus.FieldLogger
}

// NewStockMovementHandler creates a new stock movement handler
func NewStockMovementHandler(inv *inventory.Service, log logrus.FieldLogger) *StockMovementHandler {
	return &StockMovementHandler{inventory: inv, log: log}
}

// ListMovements handles GET /stock-movements
func (h *StockMovementHandler) ListMovements(c *gin.Context) {
	var req inventory.MovementListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.inventory.ListMovements(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Stock movements retrieved successfully", resp)
}

// GetMovement handles GET /stock-movements/:id
func (h *StockMovementHandler) GetMovement(c *gin.Context) {
	id, ok := parseID(c, "id", "stock movement")
	if !ok {
		return
	}

	detail, err := h.inventory.GetMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Stock movement retrieved successfully", detail)
}

// RecordMovement handles POST /stock-movements
func (h *StockMovementHandler) RecordMovement(c *gin.Context) {
	var req inventory.MovementCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.inventory.RecordMovement(c.Request.Context(), &req, actorID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Stock movement recorded successfully", detail)
}

// UpdateMovement handles PUT /stock-movements/:id
func (h *StockMovementHandler) UpdateMovement(c *gin.Context) {
	id, ok := parseID(c, "id", "stock movement")
	if !ok {
		return
	}
	var req inventory.MovementUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.inventory.UpdateMovement(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Stock movement updated successfully", detail)
}

// DeleteMovement handles DELETE /stock-movements/:id
func (h *StockMovementHandler) DeleteMovement(c *gin.Context) {
	id, ok := parseID(c, "id", "stock movement")
	if !ok {
		return
	}

	if err := h.inventory.DeleteMovement(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Stock movement deleted successfully", nil)
}
