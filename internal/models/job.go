package models

import (
	"time"

	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type JobType string

const (
	JobTypeValidation    JobType = "validation"    // paired reference/candidate run
	JobTypeRecalculation JobType = "recalculation" // resubmitted copy of a failed job
)

// Job is one unit of paired calculation work. Status only moves forward:
// pending -> running -> completed or failed. Failed is terminal; operators
// resubmit as a new job instead of reviving the old row.
type Job struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Type            JobType        `json:"type" gorm:"not null;default:'validation'"`
	Target          string         `json:"target" gorm:"not null;index"` // project/queue identifier
	CalculationDate time.Time      `json:"calculationDate"`
	IntervalType    string         `json:"intervalType" gorm:"default:'30min'"`
	InputParameters JSONB          `json:"inputParameters" gorm:"type:jsonb;not null"`
	Status          JobStatus      `json:"status" gorm:"not null;default:'pending';index"`
	Priority        int            `json:"priority" gorm:"default:3;index"`
	RetryCount      int            `json:"retryCount" gorm:"default:0"`
	MaxRetryCount   int            `json:"maxRetryCount" gorm:"default:3"`
	NextAttemptAt   time.Time      `json:"nextAttemptAt" gorm:"index"`
	LeaseExpiresAt  *time.Time     `json:"leaseExpiresAt" gorm:"index"`
	ClaimedBy       string         `json:"claimedBy"`
	Error           string         `json:"error" gorm:"type:text"`
	StartedAt       *time.Time     `json:"startedAt"`
	CompletedAt     *time.Time     `json:"completedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships (optional, not DB constraints)
	Results    []CalculationResult `json:"results,omitempty" gorm:"foreignKey:JobID"`
	Comparison *ComparisonResult   `json:"comparison,omitempty" gorm:"foreignKey:JobID"`
}

func (Job) TableName() string {
	return "jobs"
}

// IsTerminal reports whether the job can no longer change state.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
