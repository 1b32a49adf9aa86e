package shared

import (
	"math"
	"net/http"
	"strconv"
)

// Page is an offset-based listing window parsed from query parameters.
type Page struct {
	Number  int
	PerPage int
}

// ParsePage reads page and perPage query parameters, clamping to
// [1, maxPerPage]. Missing or malformed values fall back to defaults.
func ParsePage(r *http.Request, defaultPerPage, maxPerPage int) Page {
	p := Page{Number: 1, PerPage: defaultPerPage}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("perPage")); err == nil && v > 0 {
		p.PerPage = v
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Pagination is the metadata block returned alongside paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes listing metadata for a page and total row count.
func NewPagination(p Page, total int) Pagination {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := p.Number
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
