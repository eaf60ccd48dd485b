// Package query turns a job search request into store-agnostic predicates,
// an ordering rule and page bounds.
package query

import (
	"fmt"

	"github.com/govjobalert/govjobalert/internal/models"
)

type SortKey string

const (
	SortPostedDate SortKey = "posted_date"
	SortDeadline   SortKey = "deadline"
	SortSalary     SortKey = "salary"
	SortTitle      SortKey = "title"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortKey maps the empty string to the default key.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortPostedDate, nil
	case SortPostedDate, SortDeadline, SortSalary, SortTitle:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseSortOrder maps the empty string to the default order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case "":
		return Desc, nil
	case Asc, Desc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Criteria holds one optional field per supported filter. Nil pointers and
// empty strings mean "not filtered".
type Criteria struct {
	Search    string
	Category  string
	State     string
	Location  string
	JobType   models.JobType
	SalaryMin *int64
	SalaryMax *int64

	// SavedOnly restricts results to SavedIDs. With no saved ids the result
	// is empty, not unfiltered.
	SavedOnly bool
	SavedIDs  []int64

	SortBy    SortKey
	SortOrder SortOrder
}
