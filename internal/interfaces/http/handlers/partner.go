// internal/interfaces/http/handlers/partner.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SupplierHandler handles supplier endpoints
type SupplierHandler struct {
	suppliers *partner.SupplierService
	log       logrus.FieldLogger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(suppliers *partner.SupplierService, log logrus.FieldLogger) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, log: log}
}

// ListSuppliers handles GET /suppliers
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	var req partner.SupplierListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.suppliers.ListSuppliers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Suppliers retrieved successfully", resp)
}

// GetSupplier handles GET /suppliers/:id
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	id, ok := parseID(c, "id", "supplier")
	if !ok {
		return
	}

	supplier, err := h.suppliers.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Supplier retrieved successfully", supplier)
}

// CreateSupplier handles POST /suppliers
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req partner.SupplierCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.suppliers.CreateSupplier(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Supplier created successfully", supplier)
}

// UpdateSupplier handles PUT /suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, ok := parseID(c, "id", "supplier")
	if !ok {
		return
	}
	var req partner.SupplierUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.suppliers.UpdateSupplier(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Supplier updated successfully", supplier)
}

// DeleteSupplier handles DELETE /suppliers/:id
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	id, ok := parseID(c, "id", "supplier")
	if !ok {
		return
	}

	if err := h.suppliers.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Supplier deleted successfully", nil)
}

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	customers *partner.CustomerService
	log       logrus.FieldLogger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers *partner.CustomerService, log logrus.FieldLogger) *CustomerHandler {
	return &CustomerHandler{customers: customers, log: log}
}

// ListCustomers handles GET /customers
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var req shared.ListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.customers.ListCustomers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Customers retrieved successfully", resp)
}

// GetCustomer handles GET /customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Customer retrieved successfully", customer)
}

// CreateCustomer handles POST /customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req partner.CustomerCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Customer created successfully", customer)
}

// UpdateCustomer handles PUT /customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}
	var req partner.CustomerUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Customer updated successfully", customer)
}

// DeleteCustomer handles DELETE /customers/:id
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	if err := h.customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Customer deleted successfully", nil)
}
