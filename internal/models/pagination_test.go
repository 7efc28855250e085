package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	cases := map[string]struct {
		page, size         int
		wantPage, wantSize int
	}{
		"defaults":  {0, 0, 1, DefaultPageSize},
		"in range":  {3, 50, 3, 50},
		"max":       {1, MaxPageSize, 1, MaxPageSize},
		"oversized": {2, 500, 2, DefaultPageSize},
		"negative":  {-1, -5, 1, DefaultPageSize},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			page, size := NormalizePage(tc.page, tc.size)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantSize, size)
		})
	}
}

func TestNewPaginationMatchesNormalizedPage(t *testing.T) {
	assert.Equal(t, &Pagination{Page: 1, PageSize: DefaultPageSize, TotalCount: 42}, NewPagination(0, 500, 42))
}
