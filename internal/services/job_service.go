package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/govjobalert/govjobalert/internal/database"
	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/models"
	"github.com/govjobalert/govjobalert/internal/query"
)

const relatedJobsLimit = 3

// JobStore is the read/write surface the job service needs from persistence.
type JobStore interface {
	CountJobs(ctx context.Context, preds []query.Predicate) (int64, error)
	FindJobs(ctx context.Context, preds []query.Predicate, order query.Ordering, limit, offset int) ([]models.Job, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	UpsertJob(ctx context.Context, job *models.Job) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	ListStates(ctx context.Context) ([]string, error)
}

type JobService struct {
	store    JobStore
	validate *validator.Validate
}

func NewJobService(store JobStore) *JobService {
	return &JobService{
		store:    store,
		validate: newValidator(),
	}
}

// ListJobs runs the count and page queries concurrently over the same
// predicates. They do not share a snapshot, so a write landing between them
// can make the total disagree with the page by one record.
func (s *JobService) ListJobs(ctx context.Context, c query.Criteria, page query.Page) (*dtos.JobListResponse, error) {
	preds := query.Build(c)
	order := query.ResolveSort(c.SortBy, c.SortOrder)

	var (
		total int64
		jobs  []models.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountJobs(gctx, preds)
		if err != nil {
			return storeErr("count jobs", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		found, err := s.store.FindJobs(gctx, preds, order, page.Limit, page.Offset())
		if err != nil {
			return storeErr("find jobs", err)
		}
		jobs = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if jobs == nil {
		jobs = []models.Job{}
	}
	return &dtos.JobListResponse{
		Jobs:       jobs,
		Pagination: query.Paginate(page, total),
	}, nil
}

// GetJobByID returns the job plus up to three of the most recently posted
// jobs in the same category.
func (s *JobService) GetJobByID(ctx context.Context, id int64) (*dtos.JobDetailResponse, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
		}
		return nil, storeErr("get job", err)
	}

	related, err := s.store.FindJobs(ctx,
		[]query.Predicate{
			query.TextEq(query.FieldCategory, job.Category),
			query.NumberNotEq(query.FieldID, job.ID),
		},
		query.ResolveSort(query.SortPostedDate, query.Desc),
		relatedJobsLimit, 0,
	)
	if err != nil {
		return nil, storeErr("find related jobs", err)
	}
	if related == nil {
		related = []models.Job{}
	}
	return &dtos.JobDetailResponse{Job: *job, RelatedJobs: related}, nil
}

func (s *JobService) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	return items, nil
}

func (s *JobService) ListLocations(ctx context.Context) ([]models.Location, error) {
	items, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, storeErr("list locations", err)
	}
	return items, nil
}

func (s *JobService) ListStates(ctx context.Context) ([]string, error) {
	items, err := s.store.ListStates(ctx)
	if err != nil {
		return nil, storeErr("list states", err)
	}
	return items, nil
}

// BulkUpsert validates and upserts each record on its own. A failing record
// is reported in the result and does not stop the rest of the batch.
func (s *JobService) BulkUpsert(ctx context.Context, inputs []dtos.JobInput) (*dtos.BulkImportResult, error) {
	result := &dtos.BulkImportResult{}
	for i := range inputs {
		s.importOne(ctx, &inputs[i], result)
	}
	s.logSummary(result)
	return result, nil
}

// ImportRaw is BulkUpsert over undecoded records, so a record with the wrong
// JSON shape fails alone instead of rejecting the whole batch.
func (s *JobService) ImportRaw(ctx context.Context, records []json.RawMessage) (*dtos.BulkImportResult, error) {
	result := &dtos.BulkImportResult{}
	for _, raw := range records {
		var in dtos.JobInput
		if err := json.Unmarshal(raw, &in); err != nil {
			result.Errors = append(result.Errors, failure(rawID(raw), &ValidationError{Msg: "malformed record: " + err.Error()}))
			continue
		}
		s.importOne(ctx, &in, result)
	}
	s.logSummary(result)
	return result, nil
}

func (s *JobService) importOne(ctx context.Context, in *dtos.JobInput, result *dtos.BulkImportResult) {
	job, err := s.toModel(in)
	if err == nil {
		if storeFailure := s.store.UpsertJob(ctx, job); storeFailure != nil {
			err = storeErr("upsert job", storeFailure)
		}
	}
	if err != nil {
		result.Errors = append(result.Errors, failure(inputID(in), err))
		return
	}
	result.Summary.Processed++
}

func (s *JobService) logSummary(result *dtos.BulkImportResult) {
	result.Summary.Failed = len(result.Errors)
	log.Info().
		Int("processed", result.Summary.Processed).
		Int("failed", result.Summary.Failed).
		Msg("bulk job import finished")
}

func (s *JobService) toModel(in *dtos.JobInput) (*models.Job, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationFailure("invalid job", err)
	}
	if in.SalaryMin != nil && in.SalaryMax != nil && *in.SalaryMin > *in.SalaryMax {
		return nil, &ValidationError{Msg: "invalid job", Fields: map[string]string{"salaryMin": "must not exceed salaryMax"}}
	}

	posted, err := models.ParseDate(in.PostedDate)
	if err != nil {
		return nil, &ValidationError{Msg: "invalid job", Fields: map[string]string{"postedDate": err.Error()}}
	}
	job := &models.Job{
		ID:                 *in.ID,
		Title:              in.Title,
		Department:         in.Department,
		Category:           in.Category,
		Location:           in.Location,
		State:              in.State,
		SalaryMin:          roundSalary(in.SalaryMin),
		SalaryMax:          roundSalary(in.SalaryMax),
		ExperienceRequired: in.ExperienceRequired,
		EducationRequired:  in.EducationRequired,
		PostedDate:         posted,
		Description:        in.Description,
		ApplicationURL:     in.ApplicationURL,
	}
	if in.ApplicationDeadline != nil && *in.ApplicationDeadline != "" {
		deadline, err := models.ParseDate(*in.ApplicationDeadline)
		if err != nil {
			return nil, &ValidationError{Msg: "invalid job", Fields: map[string]string{"applicationDeadline": err.Error()}}
		}
		job.ApplicationDeadline = &deadline
	}
	if in.JobType != nil {
		job.JobType = models.JobType(*in.JobType)
	}
	if in.EmploymentType != nil {
		job.EmploymentType = models.EmploymentType(*in.EmploymentType)
	}
	return job, nil
}

func failure(id string, err error) string {
	return fmt.Sprintf("Failed to process job ID %s: %s", id, reason(err))
}

// reason strips a postgres error down to the server's message.
func reason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	var storeFailure *StoreError
	if errors.As(err, &storeFailure) {
		return storeFailure.Err.Error()
	}
	return err.Error()
}

func inputID(in *dtos.JobInput) string {
	if in.ID == nil {
		return "unknown"
	}
	return strconv.FormatInt(*in.ID, 10)
}

func rawID(raw json.RawMessage) string {
	var probe struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == "" {
		return "unknown"
	}
	return probe.ID.String()
}

// roundSalary stores a fractional salary to the nearest rupee.
func roundSalary(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(math.Round(*v))
	return &n
}
