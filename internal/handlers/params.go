package handlers

import (
	"strconv"
	"strings"

	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/models"
	"github.com/govjobalert/govjobalert/internal/query"
	"github.com/govjobalert/govjobalert/internal/services"
)

// toCriteria converts a bound query string into search criteria and page
// bounds. Enum values were already checked by the binding tags.
func toCriteria(q *dtos.ListJobsQuery) (query.Criteria, query.Page, error) {
	sortBy, err := query.ParseSortKey(q.SortBy)
	if err != nil {
		return query.Criteria{}, query.Page{}, &services.ValidationError{Msg: err.Error()}
	}
	sortOrder, err := query.ParseSortOrder(q.SortOrder)
	if err != nil {
		return query.Criteria{}, query.Page{}, &services.ValidationError{Msg: err.Error()}
	}
	savedIDs, err := parseIDList(q.SavedJobIDs)
	if err != nil {
		return query.Criteria{}, query.Page{}, err
	}

	c := query.Criteria{
		Search:    q.Search,
		Category:  q.Category,
		State:     q.State,
		Location:  q.Location,
		JobType:   models.JobType(q.JobType),
		SalaryMin: q.SalaryMin,
		SalaryMax: q.SalaryMax,
		SavedOnly: q.SavedOnly,
		SavedIDs:  savedIDs,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
	return c, query.NewPage(q.Page, q.Limit), nil
}

// parseIDList reads "3,7,12". Empty segments are ignored.
func parseIDList(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, &services.ValidationError{
				Msg:    "invalid query",
				Fields: map[string]string{"savedJobIds": "contains non-numeric id " + strconv.Quote(p)},
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
