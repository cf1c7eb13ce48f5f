// internal/interfaces/http/handlers/category.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CategoryHandler handles product category endpoints
type CategoryHandler struct {
	categories *product.CategoryService
	log        logrus.FieldLogger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *product.CategoryService, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{categories: categories, log: log}
}

// ListCategories handles GET /product-categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	var req shared.ListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.categories.ListCategories(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Categories retrieved successfully", resp)
}

// GetCategory handles GET /product-categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Category retrieved successfully", category)
}

// CreateCategory handles POST /product-categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req product.CategoryCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Category created successfully", category)
}

// UpdateCategory handles PUT /product-categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category")
	if !ok {
		return
	}
	var req product.CategoryUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Category updated successfully", category)
}

// DeleteCategory handles DELETE /product-categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Category deleted successfully", nil)
}
