package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-graphql-api/internal/constants"
)

func intPtr(n int) *int { return &n }

func TestNewPaginationParams(t *testing.T) {
	assert.Nil(t, NewPaginationParams(nil, nil))

	tests := []struct {
		name  string
		page  *int
		limit *int
		want  PaginationParams
	}{
		{"page only", intPtr(2), nil, PaginationParams{Page: 2, Limit: constants.DefaultPageSize, Offset: constants.DefaultPageSize}},
		{"limit only", nil, intPtr(5), PaginationParams{Page: 1, Limit: 5, Offset: 0}},
		{"both", intPtr(3), intPtr(10), PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"page below one", intPtr(0), intPtr(10), PaginationParams{Page: 1, Limit: 10, Offset: 0}},
		{"limit too large", intPtr(1), intPtr(constants.MaxPageSize + 1), PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"limit zero", intPtr(1), intPtr(0), PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPaginationParams(tt.page, tt.limit)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestPaginationParams_Info(t *testing.T) {
	p := NewPaginationParams(intPtr(2), intPtr(10))

	info := p.Info(25)
	assert.Equal(t, PageInfo{Page: 2, Limit: 10, Total: 25, HasNext: true}, info)

	assert.False(t, p.Info(20).HasNext)
	assert.False(t, p.Info(0).HasNext)
}
