package shared

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListRequest carries the query parameters shared by every collection endpoint
type ListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// Normalize clamps paging values into range
func (r *ListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultPageSize
	}
	if r.Limit > MaxPageSize {
		r.Limit = MaxPageSize
	}
	r.Search = strings.TrimSpace(r.Search)
}

// Offset returns the row offset of the requested page
func (r *ListRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// SearchPattern returns the lower-cased LIKE pattern for Search
func (r *ListRequest) SearchPattern() string {
	return "%" + strings.ToLower(r.Search) + "%"
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes pagination info for a page of results
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// SortSpec whitelists the sortable columns of a collection. Keys are the
// public field names, values the qualified column.
type SortSpec struct {
	Fields       map[string]string
	DefaultField string
	DefaultOrder string
}

// OrderClause builds the ORDER BY clause, falling back to the defaults for
// unknown fields. A leading "-" on sortBy means descending.
func (s SortSpec) OrderClause(sortBy, sortOrder string) string {
	if strings.HasPrefix(sortBy, "-") {
		sortBy = strings.TrimPrefix(sortBy, "-")
		sortOrder = "desc"
	}

	column, ok := s.Fields[sortBy]
	if !ok {
		column = s.Fields[s.DefaultField]
		sortOrder = s.DefaultOrder
	}

	sortOrder = strings.ToLower(sortOrder)
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = s.DefaultOrder
	}
	if sortOrder == "" {
		sortOrder = "asc"
	}

	return fmt.Sprintf("%s %s", column, sortOrder)
}

// Paginate counts the filtered query, then applies scopes (preloads), order
// and paging before loading dest.
func Paginate(query *gorm.DB, req *ListRequest, order string, dest any, scopes ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, fmt.Errorf("failed to count records: %w", err)
	}

	err := query.Session(&gorm.Session{}).
		Scopes(scopes...).
		Order(order).
		Offset(req.Offset()).
		Limit(req.Limit).
		Find(dest).Error
	if err != nil {
		return Pagination{}, fmt.Errorf("failed to retrieve records: %w", err)
	}

	return NewPagination(req.Page, req.Limit, total), nil
}
