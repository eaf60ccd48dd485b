package dtos

import (
	"github.com/govjobalert/govjobalert/internal/models"
	"github.com/govjobalert/govjobalert/internal/query"
)

// ListJobsQuery is the query string of GET /jobs.
type ListJobsQuery struct {
	Search      string `form:"search"`
	Category    string `form:"category"`
	State       string `form:"state"`
	Location    string `form:"location"`
	JobType     string `form:"jobType" binding:"omitempty,oneof=permanent contract temporary"`
	SalaryMin   *int64 `form:"salaryMin" binding:"omitempty,min=0"`
	SalaryMax   *int64 `form:"salaryMax" binding:"omitempty,min=0"`
	SortBy      string `form:"sortBy" binding:"omitempty,oneof=posted_date deadline salary title"`
	SortOrder   string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	SavedOnly   bool   `form:"savedOnly"`
	SavedJobIDs string `form:"savedJobIds"` // comma separated
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

type JobListResponse struct {
	Jobs       []models.Job     `json:"jobs"`
	Pagination query.Pagination `json:"pagination"`
}

type JobDetailResponse struct {
	Job         models.Job   `json:"job"`
	RelatedJobs []models.Job `json:"relatedJobs"`
}

// JobInput is one record of a bulk import.
type JobInput struct {
	ID                  *int64   `json:"id" validate:"required"`
	Title               string   `json:"title" validate:"required"`
	Department          string   `json:"department" validate:"required"`
	Category            string   `json:"category" validate:"required"`
	Location            string   `json:"location" validate:"required"`
	State               string   `json:"state" validate:"required"`
	SalaryMin           *float64 `json:"salaryMin,omitempty" validate:"omitempty,min=0,max=1000000000000"`
	SalaryMax           *float64 `json:"salaryMax,omitempty" validate:"omitempty,min=0,max=1000000000000"`
	ExperienceRequired  *string  `json:"experienceRequired,omitempty"`
	EducationRequired   *string  `json:"educationRequired,omitempty"`
	ApplicationDeadline *string  `json:"applicationDeadline,omitempty"`
	PostedDate          string   `json:"postedDate" validate:"required"`
	JobType             *string  `json:"jobType,omitempty" validate:"omitempty,oneof=permanent contract temporary"`
	EmploymentType      *string  `json:"employmentType,omitempty" validate:"omitempty,oneof=full-time part-time"`
	Description         *string  `json:"description,omitempty"`
	ApplicationURL      *string  `json:"applicationUrl,omitempty" validate:"omitempty,url"`
}

type BulkImportRequest struct {
	Data []JobInput `json:"data"`
}

type BulkSummary struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type BulkImportResult struct {
	Summary BulkSummary `json:"summary"`
	Errors  []string    `json:"errors,omitempty"`
}

// JobExtractionRequest is the body of POST /jobs/extract.
type JobExtractionRequest struct {
	RawHTML string `json:"rawHtml" binding:"required"`
	URL     string `json:"url"`
}

// ScrapedJob is one listing pulled out of a job board page by the LLM.
type ScrapedJob struct {
	Link                string `json:"link" validate:"required,url"`
	Title               string `json:"title" validate:"required"`
	Department          string `json:"department" validate:"required"`
	ApplicationDeadline string `json:"applicationDeadline,omitempty"`
}
