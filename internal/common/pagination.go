package common

import (
	"net/http"
	"strconv"
)

// Pagination is the envelope attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills the envelope, deriving the page count.
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}

// ParsePagination reads page and limit query parameters, both 1-based; bad
// or missing values fall back to the defaults.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page, perPage = 1, defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	return page, perPage
}
