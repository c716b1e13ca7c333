package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationMeta represents the pagination metadata in API responses
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// GetPaginationParams extracts and validates the page and per_page query
// parameters. per_page falls back to defaultLimit when missing or out of range.
func GetPaginationParams(c *gin.Context, defaultLimit int) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = defaultLimit
	}

	return NewPaginationParams(page, limit)
}

// NewPaginationParams builds params for a 1-based page
func NewPaginationParams(page, limit int) PaginationParams {
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// NewPaginationMeta computes the metadata for a page of total items
func NewPaginationMeta(params PaginationParams, total int64) PaginationMeta {
	lastPage := 1
	if params.Limit > 0 && total > 0 {
		lastPage = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}

	return PaginationMeta{
		CurrentPage: params.Page,
		LastPage:    lastPage,
		PerPage:     params.Limit,
		Total:       total,
	}
}
