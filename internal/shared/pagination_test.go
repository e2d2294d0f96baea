package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, Pagination{Page: 2, PerPage: 20, Total: 45, TotalPages: 3}, p)
	assert.Equal(t, 20, p.Offset())

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Zero(t, p.TotalPages)
	assert.Zero(t, p.Offset())

	assert.Equal(t, MaxPerPage, NewPagination(1, 1000, 10).PerPage)
}
