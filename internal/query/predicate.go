package query

import (
	"slices"
	"strings"

	"github.com/govjobalert/govjobalert/internal/models"
)

// Field names a job column. The values are the database column names, so a
// store may use them directly in SQL.
type Field string

const (
	FieldID          Field = "id"
	FieldTitle       Field = "title"
	FieldDepartment  Field = "department"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldState       Field = "state"
	FieldLocation    Field = "location"
	FieldJobType     Field = "job_type"
	FieldSalaryMin   Field = "salary_min"
	FieldSalaryMax   Field = "salary_max"
	FieldPostedDate  Field = "posted_date"
	FieldDeadline    Field = "application_deadline"
)

type Op int

const (
	// OpContains matches when any of Fields contains Text, ignoring case.
	OpContains Op = iota
	OpEq
	OpNotEq
	OpGte
	OpLte
	OpIn
	// OpFalse never matches.
	OpFalse
)

// Predicate is one side-effect-free condition over a job. Which of Text,
// Number or IDs is meaningful depends on Op and the field kind.
type Predicate struct {
	Op     Op
	Fields []Field
	Text   string
	Number int64
	IDs    []int64
}

func (p Predicate) Field() Field {
	if len(p.Fields) == 0 {
		return ""
	}
	return p.Fields[0]
}

func Contains(text string, fields ...Field) Predicate {
	return Predicate{Op: OpContains, Fields: fields, Text: text}
}

func TextEq(f Field, v string) Predicate {
	return Predicate{Op: OpEq, Fields: []Field{f}, Text: v}
}

func NumberEq(f Field, v int64) Predicate {
	return Predicate{Op: OpEq, Fields: []Field{f}, Number: v}
}

func NumberNotEq(f Field, v int64) Predicate {
	return Predicate{Op: OpNotEq, Fields: []Field{f}, Number: v}
}

func Gte(f Field, v int64) Predicate {
	return Predicate{Op: OpGte, Fields: []Field{f}, Number: v}
}

func Lte(f Field, v int64) Predicate {
	return Predicate{Op: OpLte, Fields: []Field{f}, Number: v}
}

func InIDs(ids []int64) Predicate {
	return Predicate{Op: OpIn, Fields: []Field{FieldID}, IDs: slices.Clone(ids)}
}

func False() Predicate {
	return Predicate{Op: OpFalse}
}

// Build translates criteria into a conjunction of predicates. The order is
// fixed (search, category, state, location, job type, salary floor, salary
// ceiling, saved) so positional parameters bind the same way on every call.
func Build(c Criteria) []Predicate {
	var preds []Predicate

	if term := strings.TrimSpace(c.Search); term != "" {
		preds = append(preds, Contains(term, FieldTitle, FieldDepartment, FieldDescription))
	}
	if c.Category != "" {
		preds = append(preds, TextEq(FieldCategory, c.Category))
	}
	if c.State != "" {
		preds = append(preds, TextEq(FieldState, c.State))
	}
	if c.Location != "" {
		preds = append(preds, TextEq(FieldLocation, c.Location))
	}
	if c.JobType != "" {
		preds = append(preds, TextEq(FieldJobType, string(c.JobType)))
	}
	// Salary bounds are overlap tests: the user's floor is met by any job
	// whose ceiling reaches it, and vice versa.
	if c.SalaryMin != nil {
		preds = append(preds, Gte(FieldSalaryMax, *c.SalaryMin))
	}
	if c.SalaryMax != nil {
		preds = append(preds, Lte(FieldSalaryMin, *c.SalaryMax))
	}
	if c.SavedOnly {
		if len(c.SavedIDs) > 0 {
			preds = append(preds, InIDs(c.SavedIDs))
		} else {
			preds = append(preds, False())
		}
	}
	return preds
}

// MatchesAll reports whether job satisfies every predicate.
func MatchesAll(preds []Predicate, job *models.Job) bool {
	for _, p := range preds {
		if !p.Matches(job) {
			return false
		}
	}
	return true
}

// Matches evaluates p against an in-memory job with the same semantics a SQL
// store gives it: a predicate on a NULL column does not match.
func (p Predicate) Matches(job *models.Job) bool {
	switch p.Op {
	case OpFalse:
		return false
	case OpContains:
		needle := strings.ToLower(p.Text)
		for _, f := range p.Fields {
			if v, ok := textValue(job, f); ok && strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	case OpIn:
		return slices.Contains(p.IDs, job.ID)
	}

	f := p.Field()
	if isNumeric(f) {
		v, ok := numberValue(job, f)
		if !ok {
			return false
		}
		switch p.Op {
		case OpEq:
			return v == p.Number
		case OpNotEq:
			return v != p.Number
		case OpGte:
			return v >= p.Number
		case OpLte:
			return v <= p.Number
		}
		return false
	}

	v, ok := textValue(job, f)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return v == p.Text
	case OpNotEq:
		return v != p.Text
	}
	return false
}

func isNumeric(f Field) bool {
	switch f {
	case FieldID, FieldSalaryMin, FieldSalaryMax:
		return true
	}
	return false
}

func textValue(job *models.Job, f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return job.Title, true
	case FieldDepartment:
		return job.Department, true
	case FieldDescription:
		if job.Description == nil {
			return "", false
		}
		return *job.Description, true
	case FieldCategory:
		return job.Category, true
	case FieldState:
		return job.State, true
	case FieldLocation:
		return job.Location, true
	case FieldJobType:
		return string(job.JobType), true
	}
	return "", false
}

func numberValue(job *models.Job, f Field) (int64, bool) {
	switch f {
	case FieldID:
		return job.ID, true
	case FieldSalaryMin:
		if job.SalaryMin == nil {
			return 0, false
		}
		return *job.SalaryMin, true
	case FieldSalaryMax:
		if job.SalaryMax == nil {
			return 0, false
		}
		return *job.SalaryMax, true
	}
	return 0, false
}
