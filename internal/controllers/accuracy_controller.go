package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staffval/backend/internal/services"
)

type AccuracyController struct {
	accuracy *services.AccuracyService
}

func NewAccuracyController(accuracy *services.AccuracyService) *AccuracyController {
	return &AccuracyController{accuracy: accuracy}
}

// ListMetrics returns recent accuracy samples. Filters: ?business_unit=,
// ?metric_type=, ?since= (RFC3339), ?limit=.
func (ac *AccuracyController) ListMetrics(c *gin.Context) {
	var since time.Time
	if v := c.Query("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	metrics, err := ac.accuracy.ListMetrics(c.Query("business_unit"), c.Query("metric_type"), since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accuracy metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "count": len(metrics)})
}

// ListDeviations returns the running deviation patterns.
func (ac *AccuracyController) ListDeviations(c *gin.Context) {
	patterns, err := ac.accuracy.ListDeviationPatterns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list deviation patterns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"patterns": patterns, "count": len(patterns)})
}

// GetConfidence returns the rolling 30-day confidence score for a key.
func (ac *AccuracyController) GetConfidence(c *gin.Context) {
	avg, count, err := ac.accuracy.RollingConfidence(c.Query("business_unit"), c.Query("metric_type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute confidence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"confidence_score": avg,
		"sample_count":     count,
	})
}
