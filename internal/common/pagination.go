package common

import (
	"net/http"
	"strconv"
)

// Pagination carries normalised list paging parameters.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int32 {
	return int32((p.Page - 1) * p.Limit)
}

// ParsePagination reads page/limit query parameters applying defaults and a cap.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit}
}
