package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govjobalert/govjobalert/internal/database"
	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/models"
	"github.com/govjobalert/govjobalert/internal/query"
)

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func newTestService(t *testing.T, jobs ...models.Job) (*JobService, *database.MemoryJobStore) {
	t.Helper()
	store := database.NewMemoryJobStore()
	for i := range jobs {
		require.NoError(t, store.UpsertJob(context.Background(), &jobs[i]))
	}
	return NewJobService(store), store
}

func job(id int64, category, state string, posted time.Time) models.Job {
	return models.Job{
		ID:         id,
		Title:      fmt.Sprintf("Job %d", id),
		Department: "Dept",
		Category:   category,
		Location:   "city",
		State:      state,
		PostedDate: models.DateOf(posted),
	}
}

func TestListJobs_SecondPageOfFilteredSet(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	var jobs []models.Job
	for i := 1; i <= 15; i++ {
		jobs = append(jobs, job(int64(i), "banking", "Maharashtra", base.AddDate(0, 0, i)))
	}
	jobs = append(jobs, job(100, "banking", "Bihar", base), job(101, "police", "Maharashtra", base))
	svc, _ := newTestService(t, jobs...)

	resp, err := svc.ListJobs(context.Background(),
		query.Criteria{Category: "banking", State: "Maharashtra", SortBy: query.SortPostedDate, SortOrder: query.Desc},
		query.NewPage(2, 12))
	require.NoError(t, err)

	require.Len(t, resp.Jobs, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{resp.Jobs[0].ID, resp.Jobs[1].ID, resp.Jobs[2].ID})
	assert.Equal(t, query.Pagination{Page: 2, Limit: 12, Total: 15, TotalPages: 2, HasNext: false, HasPrev: true}, resp.Pagination)
}

func TestListJobs_SavedOnlyWithoutIDsIsEmpty(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(t, job(1, "banking", "Goa", now), job(2, "banking", "Goa", now))

	resp, err := svc.ListJobs(context.Background(), query.Criteria{SavedOnly: true}, query.NewPage(1, 12))
	require.NoError(t, err)

	assert.NotNil(t, resp.Jobs)
	assert.Empty(t, resp.Jobs)
	assert.Equal(t, int64(0), resp.Pagination.Total)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasNext)
}

func TestListJobs_SavedOnlyRestrictsToIDs(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(t, job(1, "banking", "Goa", now), job(2, "banking", "Goa", now), job(3, "banking", "Goa", now))

	resp, err := svc.ListJobs(context.Background(), query.Criteria{SavedOnly: true, SavedIDs: []int64{3, 1, 42}}, query.NewPage(1, 12))
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Pagination.Total)
	ids := []int64{}
	for _, j := range resp.Jobs {
		ids = append(ids, j.ID)
	}
	assert.ElementsMatch(t, []int64{1, 3}, ids)
}

func TestListJobs_SalaryDescendingUsesUpperBound(t *testing.T) {
	now := time.Now()
	a := job(1, "banking", "Goa", now)
	a.SalaryMin, a.SalaryMax = i64(30000), i64(50000)
	b := job(2, "banking", "Goa", now)
	b.SalaryMin, b.SalaryMax = i64(20000), i64(80000)
	svc, _ := newTestService(t, a, b)

	resp, err := svc.ListJobs(context.Background(), query.Criteria{SortBy: query.SortSalary, SortOrder: query.Desc}, query.NewPage(1, 12))
	require.NoError(t, err)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, int64(2), resp.Jobs[0].ID)
	assert.Equal(t, int64(1), resp.Jobs[1].ID)
}

func TestListJobs_SalaryRangeOverlap(t *testing.T) {
	now := time.Now()
	low := job(1, "banking", "Goa", now)
	low.SalaryMin, low.SalaryMax = i64(10000), i64(20000)
	mid := job(2, "banking", "Goa", now)
	mid.SalaryMin, mid.SalaryMax = i64(25000), i64(45000)
	high := job(3, "banking", "Goa", now)
	high.SalaryMin, high.SalaryMax = i64(90000), i64(120000)
	unknown := job(4, "banking", "Goa", now)
	svc, _ := newTestService(t, low, mid, high, unknown)

	resp, err := svc.ListJobs(context.Background(), query.Criteria{SalaryMin: i64(30000), SalaryMax: i64(60000)}, query.NewPage(1, 12))
	require.NoError(t, err)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, int64(2), resp.Jobs[0].ID)
}

func TestGetJobByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetJobByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetJobByID_RelatedJobs(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t,
		job(1, "banking", "Goa", base),
		job(2, "banking", "Goa", base.AddDate(0, 0, 1)),
		job(3, "banking", "Goa", base.AddDate(0, 0, 2)),
		job(4, "banking", "Goa", base.AddDate(0, 0, 3)),
		job(5, "banking", "Goa", base.AddDate(0, 0, 4)),
		job(6, "police", "Goa", base.AddDate(0, 0, 9)),
	)

	resp, err := svc.GetJobByID(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, int64(4), resp.Job.ID)
	require.Len(t, resp.RelatedJobs, 3)
	assert.Equal(t, []int64{5, 3, 2}, []int64{resp.RelatedJobs[0].ID, resp.RelatedJobs[1].ID, resp.RelatedJobs[2].ID})
}

func TestGetJobByID_NoRelatedJobs(t *testing.T) {
	svc, _ := newTestService(t, job(1, "railways", "Goa", time.Now()))

	resp, err := svc.GetJobByID(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, resp.RelatedJobs)
	assert.Empty(t, resp.RelatedJobs)
}

func validInput(id int64) dtos.JobInput {
	return dtos.JobInput{
		ID:                  i64(id),
		Title:               "Assistant",
		Department:          "RBI",
		Category:            "banking",
		Location:            "mumbai",
		State:               "Maharashtra",
		SalaryMin:           f64(25000),
		SalaryMax:           f64(45000),
		PostedDate:          "2024-06-01",
		ApplicationDeadline: str("2024-07-01"),
		JobType:             str("permanent"),
		EmploymentType:      str("full-time"),
		ApplicationURL:      str("https://example.gov.in/apply"),
	}
}

func TestBulkUpsert_IsolatesInvalidRecords(t *testing.T) {
	svc, store := newTestService(t)
	bad := validInput(4)
	bad.Title = ""
	inputs := []dtos.JobInput{validInput(1), validInput(2), validInput(3), bad}

	result, err := svc.BulkUpsert(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Summary.Processed)
	assert.Equal(t, 1, result.Summary.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to process job ID 4: ")
	assert.Contains(t, result.Errors[0], "title")

	n, err := store.CountJobs(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	again, err := svc.BulkUpsert(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Summary.Processed)
	n, err = store.CountJobs(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestBulkUpsert_ReplacesExistingRecord(t *testing.T) {
	svc, store := newTestService(t)
	first := validInput(9)
	_, err := svc.BulkUpsert(context.Background(), []dtos.JobInput{first})
	require.NoError(t, err)

	second := validInput(9)
	second.Title = "Deputy Governor"
	second.SalaryMin, second.SalaryMax = nil, nil
	_, err = svc.BulkUpsert(context.Background(), []dtos.JobInput{second})
	require.NoError(t, err)

	got, err := store.GetJob(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Deputy Governor", got.Title)
	assert.Nil(t, got.SalaryMax)
	require.NotNil(t, got.ApplicationDeadline)
	assert.Equal(t, "2024-07-01", got.ApplicationDeadline.String())
	assert.Equal(t, models.JobTypePermanent, got.JobType)
}

func TestBulkUpsert_RejectsInvertedSalaryAndBadDates(t *testing.T) {
	svc, _ := newTestService(t)
	inverted := validInput(1)
	inverted.SalaryMin, inverted.SalaryMax = f64(90000), f64(10000)
	badDate := validInput(2)
	badDate.PostedDate = "yesterday"
	missingID := validInput(3)
	missingID.ID = nil

	result, err := svc.BulkUpsert(context.Background(), []dtos.JobInput{inverted, badDate, missingID})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.Processed)
	assert.Equal(t, 3, result.Summary.Failed)
	assert.Contains(t, result.Errors[0], "Failed to process job ID 1: ")
	assert.Contains(t, result.Errors[0], "salaryMin")
	assert.Contains(t, result.Errors[1], "postedDate")
	assert.Contains(t, result.Errors[2], "Failed to process job ID unknown: ")
}

func TestBulkUpsert_EmptyBatch(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, dtos.BulkSummary{}, result.Summary)
	assert.Empty(t, result.Errors)
}

func TestImportRaw_MalformedRecordFailsAlone(t *testing.T) {
	svc, _ := newTestService(t)
	good, err := json.Marshal(validInput(1))
	require.NoError(t, err)
	records := []json.RawMessage{
		good,
		json.RawMessage(`{"id": 2, "salaryMin": "lots"}`),
		json.RawMessage(`"not an object"`),
	}

	result, err := svc.ImportRaw(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Processed)
	assert.Equal(t, 2, result.Summary.Failed)
	assert.Contains(t, result.Errors[0], "Failed to process job ID 2: malformed record")
	assert.Contains(t, result.Errors[1], "Failed to process job ID unknown: ")
}

func TestImportRaw_FractionalSalaryRounds(t *testing.T) {
	svc, store := newTestService(t)
	record := json.RawMessage(`{"id": 7, "title": "Assistant", "department": "RBI", "category": "banking",
		"location": "mumbai", "state": "Maharashtra", "salaryMin": 45000.5, "salaryMax": 60000.25, "postedDate": "2024-06-01"}`)

	result, err := svc.ImportRaw(context.Background(), []json.RawMessage{record})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Summary.Processed)

	got, err := store.GetJob(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got.SalaryMin)
	require.NotNil(t, got.SalaryMax)
	assert.Equal(t, int64(45001), *got.SalaryMin)
	assert.Equal(t, int64(60000), *got.SalaryMax)
}

type failingStore struct {
	*database.MemoryJobStore
	err error
}

func (s failingStore) UpsertJob(ctx context.Context, job *models.Job) error {
	if job.ID == 2 {
		return s.err
	}
	return s.MemoryJobStore.UpsertJob(ctx, job)
}

func (s failingStore) CountJobs(context.Context, []query.Predicate) (int64, error) {
	return 0, s.err
}

func TestBulkUpsert_StoreFailureReportsReason(t *testing.T) {
	store := failingStore{MemoryJobStore: database.NewMemoryJobStore(), err: errors.New("connection reset")}
	svc := NewJobService(store)

	result, err := svc.BulkUpsert(context.Background(), []dtos.JobInput{validInput(1), validInput(2), validInput(3)})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.Processed)
	assert.Equal(t, []string{"Failed to process job ID 2: connection reset"}, result.Errors)
}

func TestListJobs_StoreFailure(t *testing.T) {
	store := failingStore{MemoryJobStore: database.NewMemoryJobStore(), err: errors.New("connection reset")}
	svc := NewJobService(store)

	_, err := svc.ListJobs(context.Background(), query.Criteria{}, query.NewPage(1, 12))

	var storeFailure *StoreError
	require.ErrorAs(t, err, &storeFailure)
	assert.Equal(t, "count jobs", storeFailure.Op)
}

func TestCatalogListings(t *testing.T) {
	svc, store := newTestService(t)
	store.SeedCatalog(
		[]models.Category{{Name: "Railways", Slug: "railways"}, {Name: "Banking", Slug: "banking"}},
		[]models.Location{{City: "Patna", State: "Bihar", Slug: "patna"}, {City: "Agra", State: "Uttar Pradesh", Slug: "agra"}},
	)
	ctx := context.Background()

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "banking", cats[0].Slug)

	locs, err := svc.ListLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "agra", locs[0].Slug)

	states, err := svc.ListStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bihar", "Uttar Pradesh"}, states)
}
