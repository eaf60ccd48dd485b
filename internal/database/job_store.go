package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/govjobalert/govjobalert/internal/models"
	"github.com/govjobalert/govjobalert/internal/query"
)

// GormJobStore is the postgres-backed job store.
type GormJobStore struct {
	DB *gorm.DB
}

func NewGormJobStore(db *gorm.DB) *GormJobStore {
	return &GormJobStore{DB: db}
}

func (s *GormJobStore) CountJobs(ctx context.Context, preds []query.Predicate) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).
		Model(&models.Job{}).
		Scopes(Filter(preds)).
		Count(&total).Error
	return total, err
}

func (s *GormJobStore) FindJobs(ctx context.Context, preds []query.Predicate, order query.Ordering, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.WithContext(ctx).
		Scopes(Filter(preds), Sort(order), Paginate(limit, offset)).
		Find(&jobs).Error
	return jobs, err
}

func (s *GormJobStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	var job models.Job
	err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpsertJob inserts the job or overwrites every column of the row with the
// same id in one statement.
func (s *GormJobStore) UpsertJob(ctx context.Context, job *models.Job) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(job).Error
}

func (s *GormJobStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (s *GormJobStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	var items []models.Location
	err := s.DB.WithContext(ctx).Order("city ASC").Find(&items).Error
	return items, err
}

func (s *GormJobStore) ListStates(ctx context.Context) ([]string, error) {
	var states []string
	err := s.DB.WithContext(ctx).
		Model(&models.Location{}).
		Distinct("state").
		Order("state ASC").
		Pluck("state", &states).Error
	return states, err
}

// Filter applies predicates as AND-ed WHERE conditions. Column names come
// from query.Field constants, never from user input.
func Filter(preds []query.Predicate) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, p := range preds {
			tx = where(tx, p)
		}
		return tx
	}
}

func where(tx *gorm.DB, p query.Predicate) *gorm.DB {
	col := string(p.Field())
	switch p.Op {
	case query.OpFalse:
		return tx.Where("1 = 0")
	case query.OpContains:
		pattern := "%" + escapeLike(p.Text) + "%"
		conds := make([]string, 0, len(p.Fields))
		args := make([]any, 0, len(p.Fields))
		for _, f := range p.Fields {
			conds = append(conds, string(f)+" ILIKE ?")
			args = append(args, pattern)
		}
		return tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	case query.OpIn:
		return tx.Where(col+" IN ?", p.IDs)
	}

	var op string
	switch p.Op {
	case query.OpEq:
		op = "="
	case query.OpNotEq:
		op = "<>"
	case query.OpGte:
		op = ">="
	case query.OpLte:
		op = "<="
	default:
		tx.AddError(fmt.Errorf("unsupported predicate op %d", p.Op))
		return tx
	}
	var value any = p.Text
	if isNumeric(p.Field()) {
		value = p.Number
	}
	return tx.Where(fmt.Sprintf("%s %s ?", col, op), value)
}

func isNumeric(f query.Field) bool {
	switch f {
	case query.FieldID, query.FieldSalaryMin, query.FieldSalaryMax:
		return true
	}
	return false
}

// Sort orders by one column with NULLs last, then by id so that pages do not
// overlap when the sort column has ties.
func Sort(o query.Ordering) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		return tx.Order(fmt.Sprintf("%s %s NULLS LAST", o.Field, dir)).Order("id ASC")
	}
}

func Paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit).Offset(offset)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
