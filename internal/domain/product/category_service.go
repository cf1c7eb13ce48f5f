// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{
		db:  db,
		log: log,
	}
}

var categorySort = shared.SortSpec{
	Fields: map[string]string{
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: "asc",
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

// CategoryWithProductCount represents category with product count
type CategoryWithProductCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// CategoryListResponse represents a page of categories
type CategoryListResponse struct {
	Categories []CategoryWithProductCount `json:"categories"`
	Pagination shared.Pagination          `json:"pagination"`
}

// ListCategories retrieves categories with their product counts
func (s *CategoryService) ListCategories(ctx context.Context, req *shared.ListRequest) (*CategoryListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Category{})
	if req.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", req.SearchPattern())
	}

	var categories []Category
	pagination, err := shared.Paginate(query, req, categorySort.OrderClause(req.SortBy, req.SortOrder), &categories)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	counts, err := s.productCounts(ctx, categories)
	if err != nil {
		return nil, err
	}

	result := make([]CategoryWithProductCount, 0, len(categories))
	for _, c := range categories {
		result = append(result, CategoryWithProductCount{Category: c, ProductCount: counts[c.ID]})
	}

	return &CategoryListResponse{
		Categories: result,
		Pagination: pagination,
	}, nil
}

func (s *CategoryService) productCounts(ctx context.Context, categories []Category) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(categories))
	if len(categories) == 0 {
		return counts, nil
	}

	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}

	var rows []struct {
		CategoryID uint
		Count      int64
	}
	err := s.db.WithContext(ctx).
		Model(&Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count category products: %w", err)
	}

	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}

// GetCategory retrieves a single category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("category")
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryCreateRequest) (*Category, error) {
	category := Category{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return &category, nil
}

// UpdateCategory applies the non-nil fields of req
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryUpdateRequest) (*Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
	}

	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category; its products become uncategorised
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&Category{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.log.WithField("category_id", id).Info("Category deleted")
	return nil
}
