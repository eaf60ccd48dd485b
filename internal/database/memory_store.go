package database

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/govjobalert/govjobalert/internal/models"
	"github.com/govjobalert/govjobalert/internal/query"
)

// MemoryJobStore keeps jobs and catalogs in process memory. It evaluates
// predicates and orderings with the same semantics as GormJobStore and is
// safe for concurrent use.
type MemoryJobStore struct {
	mu         sync.RWMutex
	jobs       map[int64]models.Job
	categories []models.Category
	locations  []models.Location
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[int64]models.Job)}
}

func (s *MemoryJobStore) CountJobs(ctx context.Context, preds []query.Predicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, job := range s.jobs {
		if query.MatchesAll(preds, &job) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryJobStore) FindJobs(ctx context.Context, preds []query.Predicate, order query.Ordering, limit, offset int) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	matched := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if query.MatchesAll(preds, &job) {
			matched = append(matched, job)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Job) int {
		return order.Compare(&a, &b)
	})

	if offset < 0 || offset >= len(matched) {
		return []models.Job{}, nil
	}
	end := len(matched)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return matched[offset:end], nil
}

func (s *MemoryJobStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (s *MemoryJobStore) UpsertJob(ctx context.Context, job *models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryJobStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := slices.Clone(s.categories)
	slices.SortFunc(items, func(a, b models.Category) int { return cmp.Compare(a.Name, b.Name) })
	return items, nil
}

func (s *MemoryJobStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := slices.Clone(s.locations)
	slices.SortFunc(items, func(a, b models.Location) int { return cmp.Compare(a.City, b.City) })
	return items, nil
}

func (s *MemoryJobStore) ListStates(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]string, 0, len(s.locations))
	for _, loc := range s.locations {
		states = append(states, loc.State)
	}
	slices.Sort(states)
	return slices.Compact(states), nil
}

// SeedCatalog adds categories and locations whose slug is not present yet.
func (s *MemoryJobStore) SeedCatalog(categories []models.Category, locations []models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		if !slices.ContainsFunc(s.categories, func(e models.Category) bool { return e.Slug == c.Slug }) {
			c.ID = uint(len(s.categories) + 1)
			s.categories = append(s.categories, c)
		}
	}
	for _, l := range locations {
		if !slices.ContainsFunc(s.locations, func(e models.Location) bool { return e.Slug == l.Slug }) {
			l.ID = uint(len(s.locations) + 1)
			s.locations = append(s.locations, l)
		}
	}
}
