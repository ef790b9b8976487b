package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/kebele/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // pages are 1-based
	// MaxPage keeps (page-1)*size well inside an int32 offset
	MaxPage = 1_000_000
)

// normalize clamps page and size into the accepted range
func normalize(page, size int) (int, int) {
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	switch {
	case page < 1:
		page = DefaultPage
	case page > MaxPage:
		page = MaxPage
	}
	return page, size
}

// CalculateOffsetLimit turns a 1-based page into an SQL offset and limit.
func CalculateOffsetLimit(page, size int) (offset uint64, limit uint64) {
	page, size = normalize(page, size)
	return uint64((page - 1) * size), uint64(size)
}

// NewPaginationInfo describes the page returned for a list of totalItems.
// An empty list still reports one page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = normalize(page, size)

	totalPages := int((totalItems + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads ?page= and ?size=; malformed values fall back to the defaults
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = DefaultPage
	}
	size, err = strconv.Atoi(c.Query("size"))
	if err != nil {
		size = DefaultPageSize
	}
	return normalize(page, size)
}
