package pagination

import "gorm.io/gorm"

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Params carries page-based pagination input bound from query strings.
type Params struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps the parameters into a usable range.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Scope applies the pagination window to a gorm query.
func (p Params) Scope(tx *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return tx.Offset(p.Offset()).Limit(p.Limit)
}

// Page describes one page of results together with the total row count.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	PageNumber int   `json:"page"`
	Limit      int   `json:"limit"`
}

// NewPage assembles a result page from a normalized request.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, PageNumber: p.Page, Limit: p.Limit}
}
