package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/staffval/backend/internal/services"
	"gorm.io/gorm"
)

type JobController struct {
	queue      *services.QueueService
	comparison *services.ComparisonService
}

func NewJobController(queue *services.QueueService, comparison *services.ComparisonService) *JobController {
	return &JobController{queue: queue, comparison: comparison}
}

// SubmitJob accepts a validation job for the paired engines.
func (jc *JobController) SubmitJob(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := jc.queue.Submit(req)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit job"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"job_id":  job.ID,
		"status":  job.Status,
	})
}

// GetJob returns a job with its results and comparison.
func (jc *JobController) GetJob(c *gin.Context) {
	jobID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := jc.queue.GetJob(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobs returns jobs newest first, optionally filtered by ?status=.
func (jc *JobController) ListJobs(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	jobs, err := jc.queue.ListJobs(c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// GetComparison returns the stored comparison for a job.
func (jc *JobController) GetComparison(c *gin.Context) {
	jobID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	cmp, err := jc.comparison.GetByJob(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No comparison for this job"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparison"})
		return
	}

	c.JSON(http.StatusOK, cmp)
}

// ResubmitJob clones a failed job as a new pending job.
func (jc *JobController) ResubmitJob(c *gin.Context) {
	jobID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	clone, err := jc.queue.Resubmit(jobID)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusConflict, gin.H{"error": vErr.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resubmit job"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"job_id":  clone.ID,
		"status":  clone.Status,
	})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
