package models

type JobType string

const (
	JobTypePermanent JobType = "permanent"
	JobTypeContract  JobType = "contract"
	JobTypeTemporary JobType = "temporary"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full-time"
	EmploymentPartTime EmploymentType = "part-time"
)

// Job is a single government job posting. The ID is assigned by the source
// that publishes the posting, never by the database.
type Job struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title      string `gorm:"not null" json:"title"`
	Department string `gorm:"not null" json:"department"`

	// Slugs referencing Category and Location.
	Category string `gorm:"not null;index:idx_jobs_category" json:"category"`
	Location string `gorm:"not null;index:idx_jobs_location" json:"location"`
	State    string `gorm:"not null;index:idx_jobs_state" json:"state"`

	SalaryMin *int64 `json:"salaryMin,omitempty"`
	SalaryMax *int64 `json:"salaryMax,omitempty"`

	ExperienceRequired  *string `json:"experienceRequired,omitempty"`
	EducationRequired   *string `json:"educationRequired,omitempty"`
	ApplicationDeadline *Date   `json:"applicationDeadline,omitempty"`
	PostedDate          Date    `gorm:"not null;index:idx_jobs_posted_date,sort:desc" json:"postedDate"`

	JobType        JobType        `gorm:"index:idx_jobs_job_type" json:"jobType,omitempty"`
	EmploymentType EmploymentType `json:"employmentType,omitempty"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	ApplicationURL *string        `gorm:"column:application_url" json:"applicationUrl,omitempty"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

// Location carries its state so that selecting a state can narrow the
// locations offered to the user.
type Location struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	City  string `gorm:"not null" json:"city"`
	State string `gorm:"not null;index" json:"state"`
	Slug  string `gorm:"uniqueIndex;not null" json:"slug"`
}
