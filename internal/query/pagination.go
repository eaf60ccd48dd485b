package query

import "math"

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// Page is a requested 1-based page.
type Page struct {
	Number int
	Limit  int
}

// NewPage normalises a request: numbers below 1 become page 1, a missing or
// non-positive limit becomes DefaultLimit and limits above MaxLimit are
// capped. Numbers are capped so that the page's end offset fits in an int.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if last := math.MaxInt / limit; number > last {
		number = last
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Paginate derives response metadata from the total number of matching
// records.
func Paginate(p Page, total int64) Pagination {
	totalPages := 0
	if total > 0 && p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		Page:       p.Number,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Number < totalPages,
		HasPrev:    p.Number > 1,
	}
}
