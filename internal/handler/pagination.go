package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginate cuts one page out of items when the request carries page or page_size. Without
// either parameter the whole list is returned and the pagination block is omitted.
func paginate[T any](c *gin.Context, items []T) ([]T, *models.Pagination, error) {
	rawPage, hasPage := c.GetQuery("page")
	rawSize, hasSize := c.GetQuery("page_size")
	if !hasPage && !hasSize {
		return items, nil, nil
	}

	page, size := 1, defaultPageSize
	if hasPage {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "page must be a positive integer")
		}
		page = n
	}
	if hasSize {
		n, err := strconv.Atoi(rawSize)
		if err != nil || n < 1 || n > maxPageSize {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "page_size must be between 1 and "+strconv.Itoa(maxPageSize))
		}
		size = n
	}

	total := len(items)
	start := total
	if page-1 < (total+size-1)/size {
		start = (page - 1) * size
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// respondPage writes one page of a list response.
func respondPage[T any](c *gin.Context, items []T, meta map[string]interface{}) {
	pageItems, pagination, err := paginate(c, items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pageItems, pagination, meta)
}
