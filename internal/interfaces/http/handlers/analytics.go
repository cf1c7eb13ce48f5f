// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/analytics"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DashboardHandler serves the read-only dashboard endpoints
type DashboardHandler struct {
	analytics *analytics.Service
	log       logrus.FieldLogger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *analytics.Service, log logrus.FieldLogger) *DashboardHandler {
	return &DashboardHandler{analytics: svc, log: log}
}

// SupplierPayments handles GET /dashboard/supplier-payments
func (h *DashboardHandler) SupplierPayments(c *gin.Context) {
	rows, err := h.analytics.SupplierPayments(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Supplier payments retrieved successfully", rows)
}

// CustomerPayments handles GET /dashboard/customer-payments
func (h *DashboardHandler) CustomerPayments(c *gin.Context) {
	rows, err := h.analytics.CustomerPayments(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Customer payments retrieved successfully", rows)
}

// LowStockProducts handles GET /dashboard/low-stock-products
func (h *DashboardHandler) LowStockProducts(c *gin.Context) {
	rows, err := h.analytics.LowStockProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Low stock products retrieved successfully", rows)
}

// SalesSummary handles GET /dashboard/sales-summary
func (h *DashboardHandler) SalesSummary(c *gin.Context) {
	summary, err := h.analytics.SalesSummary(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sales summary retrieved successfully", summary)
}

// PurchasesSummary handles GET /dashboard/purchases-summary
func (h *DashboardHandler) PurchasesSummary(c *gin.Context) {
	summary, err := h.analytics.PurchasesSummary(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Purchases summary retrieved successfully", summary)
}
