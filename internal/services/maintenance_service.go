package services

import (
	"fmt"
	"time"

	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

const (
	metricRetention          = 90 * 24 * time.Hour
	resolvedPatternRetention = 30 * 24 * time.Hour
)

// MaintenanceService owns the retention cleanup invoked by the external
// scheduler through cmd/maintenance.
type MaintenanceService struct {
	db *gorm.DB
}

func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{db: db}
}

// CleanupReport summarizes one retention pass.
type CleanupReport struct {
	AccuracyMetrics    int64 `json:"accuracyMetrics"`
	PerformanceSamples int64 `json:"performanceSamples"`
	ResolvedPatterns   int64 `json:"resolvedPatterns"`
}

// Cleanup purges accuracy metrics and performance samples past the 90-day
// retention window, plus failure patterns resolved more than 30 days ago.
func (ms *MaintenanceService) Cleanup(now time.Time) (*CleanupReport, error) {
	report := &CleanupReport{}

	res := ms.db.Where("measured_at < ?", now.Add(-metricRetention)).
		Delete(&models.AccuracyMetric{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to purge accuracy metrics: %w", res.Error)
	}
	report.AccuracyMetrics = res.RowsAffected

	res = ms.db.Where("created_at < ?", now.Add(-metricRetention)).
		Delete(&models.PerformanceSample{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to purge performance samples: %w", res.Error)
	}
	report.PerformanceSamples = res.RowsAffected

	res = ms.db.Where("resolution_status = ? AND resolved_at < ?",
		models.ResolutionResolved, now.Add(-resolvedPatternRetention)).
		Delete(&models.FailurePattern{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to purge resolved patterns: %w", res.Error)
	}
	report.ResolvedPatterns = res.RowsAffected

	logger.Info("Retention cleanup finished", map[string]interface{}{
		"accuracy_metrics":    report.AccuracyMetrics,
		"performance_samples": report.PerformanceSamples,
		"resolved_patterns":   report.ResolvedPatterns,
	})
	return report, nil
}
