package query

import (
	"cmp"

	"github.com/govjobalert/govjobalert/internal/models"
)

// Ordering is a single-field ordering rule.
type Ordering struct {
	Field Field
	Desc  bool
}

// ResolveSort maps a sort key and direction to an ordering. Salary sorts on
// the top of the posted range.
func ResolveSort(key SortKey, order SortOrder) Ordering {
	o := Ordering{Field: FieldPostedDate, Desc: order != Asc}
	switch key {
	case SortDeadline:
		o.Field = FieldDeadline
	case SortSalary:
		o.Field = FieldSalaryMax
	case SortTitle:
		o.Field = FieldTitle
	}
	return o
}

// Compare orders two jobs for an in-memory store. Jobs without a value for
// the field sort last in both directions, and ties fall back to ascending id.
func (o Ordering) Compare(a, b *models.Job) int {
	c := o.compareField(a, b)
	if c == 0 {
		return cmp.Compare(a.ID, b.ID)
	}
	return c
}

func (o Ordering) compareField(a, b *models.Job) int {
	switch o.Field {
	case FieldTitle:
		return o.directed(cmp.Compare(a.Title, b.Title))
	case FieldPostedDate:
		return o.directed(a.PostedDate.Compare(b.PostedDate.Time))
	case FieldDeadline:
		return nullsLast(a.ApplicationDeadline == nil, b.ApplicationDeadline == nil, func() int {
			return o.directed(a.ApplicationDeadline.Compare(b.ApplicationDeadline.Time))
		})
	case FieldSalaryMax:
		return nullsLast(a.SalaryMax == nil, b.SalaryMax == nil, func() int {
			return o.directed(cmp.Compare(*a.SalaryMax, *b.SalaryMax))
		})
	case FieldSalaryMin:
		return nullsLast(a.SalaryMin == nil, b.SalaryMin == nil, func() int {
			return o.directed(cmp.Compare(*a.SalaryMin, *b.SalaryMin))
		})
	}
	return 0
}

func (o Ordering) directed(c int) int {
	if o.Desc {
		return -c
	}
	return c
}

func nullsLast(aNil, bNil bool, both func() int) int {
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	return both()
}
