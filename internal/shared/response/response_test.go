package response_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"library-backend/internal/shared/response"
)

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		perPage  int
		total    int
		lastPage int
	}{
		{"12 rows at 5 per page", 2, 5, 12, 3},
		{"exact multiple", 1, 5, 10, 2},
		{"empty set still has one page", 1, 20, 0, 1},
		{"single row", 1, 20, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := response.NewMeta(tt.page, tt.perPage, tt.total, "")
			assert.Equal(t, tt.page, meta.CurrentPage)
			assert.Equal(t, tt.lastPage, meta.LastPage)
			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.perPage, meta.PerPage)
		})
	}
}

func TestMetaWithGrandTotal(t *testing.T) {
	meta := response.NewMeta(1, 20, 3, "")
	assert.Nil(t, meta.GrandTotal)

	meta = meta.WithGrandTotal(decimal.RequireFromString("59.97"))
	if assert.NotNil(t, meta.GrandTotal) {
		assert.True(t, meta.GrandTotal.Equal(decimal.RequireFromString("59.97")))
	}
}
