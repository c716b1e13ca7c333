package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, 15},
		{"explicit", "?page=3&per_page=20", 3, 20},
		{"page below one", "?page=0", 1, 15},
		{"per_page above max", "?per_page=500", 1, 15},
		{"garbage", "?page=x&per_page=y", 1, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)

			params := GetPaginationParams(c, 15)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, (tt.wantPage-1)*tt.wantLimit, params.Offset)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(NewPaginationParams(2, 10), 21)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.LastPage)
	assert.Equal(t, 10, meta.PerPage)
	assert.Equal(t, int64(21), meta.Total)

	empty := NewPaginationMeta(NewPaginationParams(1, 10), 0)
	assert.Equal(t, 1, empty.LastPage)
}
