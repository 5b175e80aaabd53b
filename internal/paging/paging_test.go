package paging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tableside/console/internal/paging"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{5, 1},
		{6, 2},
		{7, 2},
		{10, 2},
		{11, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, paging.TotalPages(tt.n, paging.DefaultSize), "n=%d", tt.n)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, paging.Clamp(0, 3))
	assert.Equal(t, 1, paging.Clamp(-4, 3))
	assert.Equal(t, 3, paging.Clamp(9, 3))
	assert.Equal(t, 2, paging.Clamp(2, 3))
	assert.Equal(t, 1, paging.Clamp(5, 0))
}

func TestPaginate_ClampsPastTheEnd(t *testing.T) {
	p := paging.Paginate(seq(7), 3, paging.DefaultSize)

	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 7, p.Total)
	assert.Equal(t, []int{6, 7}, p.Items)
}

func TestPaginate_FirstPage(t *testing.T) {
	p := paging.Paginate(seq(12), 1, paging.DefaultSize)

	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, p.Items)
}

func TestPaginate_Empty(t *testing.T) {
	p := paging.Paginate([]string{}, 4, paging.DefaultSize)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
	assert.Empty(t, p.Items)
}

func TestPaginate_InvariantHolds(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for page := -1; page <= 7; page++ {
			p := paging.Paginate(seq(n), page, paging.DefaultSize)
			assert.Equal(t, (n+4)/5, p.TotalPages)
			assert.GreaterOrEqual(t, p.Page, 1)
			if n > 0 {
				assert.LessOrEqual(t, p.Page, p.TotalPages)
			} else {
				assert.Equal(t, 1, p.Page)
			}
			assert.LessOrEqual(t, len(p.Items), paging.DefaultSize)
		}
	}
}

func TestPaginate_DoesNotAliasInput(t *testing.T) {
	in := seq(3)
	p := paging.Paginate(in, 1, paging.DefaultSize)
	p.Items[0] = 99
	assert.Equal(t, 1, in[0])
}
