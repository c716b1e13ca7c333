package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Positioned orders rows by position with the primary key as tie-breaker.
func Positioned(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".position ASC").Order(table + ".id ASC")
	}
}
