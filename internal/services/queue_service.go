package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

// SubmitRequest is the external submission contract.
type SubmitRequest struct {
	JobType         string                 `json:"job_type"`
	Target          string                 `json:"target"`
	CalculationDate time.Time              `json:"calculation_date"`
	IntervalType    string                 `json:"interval_type"`
	InputParameters map[string]interface{} `json:"input_parameters"`
	Priority        int                    `json:"priority"`
}

// requiredInputFields must be present and numeric before a job is accepted.
var requiredInputFields = []string{
	"offered_calls",
	"avg_handle_time",
	"interval_seconds",
	"target_service_level",
	"target_answer_time",
}

type QueueService struct {
	db            *gorm.DB
	leaseDuration time.Duration
	backoffBase   time.Duration
	backoffCap    time.Duration
}

// NewQueueService creates a queue manager. Lease and backoff windows come
// from LEASE_SECONDS, RETRY_BACKOFF_SECONDS and RETRY_BACKOFF_CAP_SECONDS.
func NewQueueService(db *gorm.DB) *QueueService {
	return &QueueService{
		db:            db,
		leaseDuration: envDuration("LEASE_SECONDS", 300),
		backoffBase:   envDuration("RETRY_BACKOFF_SECONDS", 30),
		backoffCap:    envDuration("RETRY_BACKOFF_CAP_SECONDS", 900),
	}
}

func envDuration(key string, defSeconds int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defSeconds) * time.Second
}

// Submit validates the request and stores a pending job.
func (qs *QueueService) Submit(req SubmitRequest) (*models.Job, error) {
	if req.Target == "" {
		return nil, &ValidationError{Field: "target", Reason: "required"}
	}
	if req.InputParameters == nil {
		return nil, &ValidationError{Field: "input_parameters", Reason: "required"}
	}
	for _, field := range requiredInputFields {
		raw, ok := req.InputParameters[field]
		if !ok {
			return nil, &ValidationError{Field: field, Reason: "required"}
		}
		if _, ok := toFloat(raw); !ok {
			return nil, &ValidationError{Field: field, Reason: "must be numeric"}
		}
	}

	jobType := models.JobTypeValidation
	if req.JobType != "" {
		jobType = models.JobType(req.JobType)
	}
	priority := req.Priority
	if priority == 0 {
		priority = 3
	}
	intervalType := req.IntervalType
	if intervalType == "" {
		intervalType = "30min"
	}

	job := &models.Job{
		Type:            jobType,
		Target:          req.Target,
		CalculationDate: req.CalculationDate,
		IntervalType:    intervalType,
		InputParameters: models.JSONB(req.InputParameters),
		Status:          models.JobStatusPending,
		Priority:        priority,
		MaxRetryCount:   3,
		NextAttemptAt:   time.Now(),
	}
	if err := qs.db.Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	logger.WithJob(job.ID, string(job.Type), "queue_service").Info("Job submitted")
	return job, nil
}

// ClaimNext atomically claims up to batchSize pending jobs for a worker.
// Ordering is priority descending, then creation time ascending. Each claim
// is a conditional update on the pending status, so concurrent workers can
// never run the same job twice; rows lost to a faster worker are skipped.
func (qs *QueueService) ClaimNext(workerID string, batchSize int) ([]models.Job, error) {
	now := time.Now()
	var candidates []models.Job
	if err := qs.db.
		Where("status = ? AND next_attempt_at <= ?", models.JobStatusPending, now).
		Order("priority DESC, created_at ASC").
		Limit(batchSize).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	claimed := make([]models.Job, 0, len(candidates))
	for _, job := range candidates {
		lease := now.Add(qs.leaseDuration)
		res := qs.db.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, models.JobStatusPending).
			Updates(map[string]interface{}{
				"status":           models.JobStatusRunning,
				"claimed_by":       workerID,
				"lease_expires_at": &lease,
				"started_at":       &now,
			})
		if res.Error != nil {
			return claimed, fmt.Errorf("failed to claim job %d: %w", job.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue // another worker won the claim
		}
		job.Status = models.JobStatusRunning
		job.ClaimedBy = workerID
		job.LeaseExpiresAt = &lease
		claimed = append(claimed, job)
	}
	return claimed, nil
}

// Complete marks a running job completed. The status condition keeps the
// transition monotonic: a terminal job can never be completed again.
func (qs *QueueService) Complete(jobID uint) error {
	now := time.Now()
	res := qs.db.Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":           models.JobStatusCompleted,
			"completed_at":     &now,
			"lease_expires_at": nil,
			"error":            "",
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete job %d: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %d not running, completion skipped", jobID)
	}
	return nil
}

// Fail records an execution failure. Below the retry limit the job returns
// to pending with an exponential backoff window; at the limit it becomes
// terminally failed with the captured error detail.
func (qs *QueueService) Fail(jobID uint, cause error) error {
	var job models.Job
	if err := qs.db.First(&job, jobID).Error; err != nil {
		return fmt.Errorf("failed to load job %d: %w", jobID, err)
	}
	if job.Status != models.JobStatusRunning {
		return fmt.Errorf("job %d not running, failure skipped", jobID)
	}

	retryCount := job.RetryCount + 1
	updates := map[string]interface{}{
		"retry_count":      retryCount,
		"error":            cause.Error(),
		"lease_expires_at": nil,
		"claimed_by":       "",
	}
	if retryCount < job.MaxRetryCount {
		updates["status"] = models.JobStatusPending
		updates["next_attempt_at"] = time.Now().Add(qs.backoffDelay(retryCount))
	} else {
		now := time.Now()
		updates["status"] = models.JobStatusFailed
		updates["completed_at"] = &now
	}

	res := qs.db.Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to record failure for job %d: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %d changed state concurrently, failure skipped", jobID)
	}

	logger.WithJob(jobID, string(job.Type), "queue_service").WithField("retry_count", retryCount).
		Warn("Job attempt failed: " + cause.Error())
	return nil
}

// backoffDelay doubles per attempt from the base, capped.
func (qs *QueueService) backoffDelay(retryCount int) time.Duration {
	d := qs.backoffBase
	for i := 1; i < retryCount; i++ {
		d *= 2
		if d >= qs.backoffCap {
			return qs.backoffCap
		}
	}
	if d > qs.backoffCap {
		return qs.backoffCap
	}
	return d
}

// ReapExpiredLeases requeues running jobs whose lease has lapsed, charging a
// retry as if the attempt had failed. Called from the maintenance entrypoint.
func (qs *QueueService) ReapExpiredLeases() (int, error) {
	var stale []models.Job
	if err := qs.db.
		Where("status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at < ?",
			models.JobStatusRunning, time.Now()).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to list expired leases: %w", err)
	}

	reaped := 0
	for _, job := range stale {
		err := qs.Fail(job.ID, fmt.Errorf("lease expired for worker %q", job.ClaimedBy))
		if err != nil {
			logger.WithJob(job.ID, string(job.Type), "queue_service").Warn("Reaper skipped job: " + err.Error())
			continue
		}
		reaped++
	}
	return reaped, nil
}

// Resubmit clones a failed job as a brand-new pending job. The failed row is
// never revived.
func (qs *QueueService) Resubmit(jobID uint) (*models.Job, error) {
	var job models.Job
	if err := qs.db.First(&job, jobID).Error; err != nil {
		return nil, fmt.Errorf("failed to load job %d: %w", jobID, err)
	}
	if job.Status != models.JobStatusFailed {
		return nil, &ValidationError{Field: "status", Reason: "only failed jobs can be resubmitted"}
	}

	clone := &models.Job{
		Type:            models.JobTypeRecalculation,
		Target:          job.Target,
		CalculationDate: job.CalculationDate,
		IntervalType:    job.IntervalType,
		InputParameters: job.InputParameters,
		Status:          models.JobStatusPending,
		Priority:        job.Priority,
		MaxRetryCount:   job.MaxRetryCount,
		NextAttemptAt:   time.Now(),
	}
	if err := qs.db.Create(clone).Error; err != nil {
		return nil, fmt.Errorf("failed to resubmit job %d: %w", jobID, err)
	}
	return clone, nil
}

// GetJob returns a job with its results and comparison preloaded.
func (qs *QueueService) GetJob(jobID uint) (*models.Job, error) {
	var job models.Job
	if err := qs.db.Preload("Results").Preload("Comparison").First(&job, jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (qs *QueueService) ListJobs(status string, limit int) ([]models.Job, error) {
	q := qs.db.Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// toFloat accepts the numeric encodings JSON input arrives in.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
