package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatePagination(t *testing.T) {
	p := CreatePagination(45, 2, 10)
	assert.Equal(t, 45, p.TotalItems)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 10, p.Offset())
}

func TestCreatePaginationDefaults(t *testing.T) {
	p := CreatePagination(7, 0, 0)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.Offset())
}

func TestCreatePaginationEmpty(t *testing.T) {
	p := CreatePagination(0, 1, 10)
	assert.Equal(t, 0, p.TotalPages)
}
