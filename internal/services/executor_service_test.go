package services

import (
	"testing"
	"time"

	"github.com/staffval/backend/internal/models"
)

func TestRetryReplacesPriorAttemptRows(t *testing.T) {
	db := newTestDB(t)
	queue := &QueueService{
		db:            db,
		leaseDuration: time.Minute,
		backoffBase:   time.Second,
		backoffCap:    time.Minute,
	}
	es := NewExecutorService(db, queue, NewComparisonService(db), NewAccuracyService(db), "worker-0")

	now := time.Now()
	job := &models.Job{
		Type:         models.JobTypeValidation,
		Target:       "support-tier1",
		IntervalType: "30min",
		InputParameters: models.JSONB{
			"offered_calls":        1000.0,
			"avg_handle_time":      240.0,
			"interval_seconds":     1800.0,
			"target_service_level": 80.0,
			"target_answer_time":   20.0,
		},
		Status:        models.JobStatusRunning,
		Priority:      3,
		RetryCount:    1,
		MaxRetryCount: 3,
		NextAttemptAt: now,
		ClaimedBy:     "worker-0",
		StartedAt:     &now,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to seed job: %v", err)
	}

	// The prior attempt persisted the candidate result before failing. The
	// unique (job_id, engine) index must not doom the rerun.
	leftover := &models.CalculationResult{
		JobID:            job.ID,
		Engine:           models.EngineCandidate,
		AlgorithmVersion: "next-1.0",
		AgentsRequired:   999,
	}
	if err := db.Create(leftover).Error; err != nil {
		t.Fatalf("Failed to seed leftover result: %v", err)
	}

	es.runJob(job)

	var reloaded models.Job
	if err := db.First(&reloaded, job.ID).Error; err != nil {
		t.Fatalf("Failed to reload job: %v", err)
	}
	if reloaded.Status != models.JobStatusCompleted {
		t.Fatalf("Job status = %s (error %q), want completed", reloaded.Status, reloaded.Error)
	}

	var results []models.CalculationResult
	if err := db.Where("job_id = ?", job.ID).Find(&results).Error; err != nil {
		t.Fatalf("Failed to list results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 fresh results, got %d", len(results))
	}
	for _, r := range results {
		if r.AgentsRequired == 999 {
			t.Error("Leftover result from the prior attempt survived the rerun")
		}
	}

	var cmp models.ComparisonResult
	if err := db.Where("job_id = ?", job.ID).First(&cmp).Error; err != nil {
		t.Fatalf("Expected a stored comparison after the rerun: %v", err)
	}
}
