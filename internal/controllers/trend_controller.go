package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staffval/backend/internal/services"
)

type TrendController struct {
	trends *services.TrendService
}

func NewTrendController(trends *services.TrendService) *TrendController {
	return &TrendController{trends: trends}
}

// ListTrends returns stored accuracy periods. Filters: ?business_unit=,
// ?metric_type=, ?since= (RFC3339).
func (tc *TrendController) ListTrends(c *gin.Context) {
	var since time.Time
	if v := c.Query("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}

	trends, err := tc.trends.ListTrends(c.Query("business_unit"), c.Query("metric_type"), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list trends"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends, "count": len(trends)})
}

// GetForecast projects the next period for a (business_unit, metric_type).
func (tc *TrendController) GetForecast(c *gin.Context) {
	businessUnit := c.Query("business_unit")
	metricType := c.Query("metric_type")
	if businessUnit == "" || metricType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_unit and metric_type are required"})
		return
	}

	forecast, err := tc.trends.Forecast(businessUnit, metricType)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, forecast)
}

// GetCorrelations returns the diagnostic correlations for a range. Defaults
// to the trailing 30 days.
func (tc *TrendController) GetCorrelations(c *gin.Context) {
	end := time.Now()
	start := end.Add(-30 * 24 * time.Hour)
	if v := c.Query("start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
			return
		}
		start = parsed
	}
	if v := c.Query("end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
			return
		}
		end = parsed
	}

	report, err := tc.trends.Correlations(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute correlations"})
		return
	}

	c.JSON(http.StatusOK, report)
}
