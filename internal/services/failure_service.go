package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

const (
	miningWindow       = 24 * time.Hour
	performanceWindow  = 7 * 24 * time.Hour
	deviationThreshold = 10.0 // pct diff a sample must exceed to count
	accuracyMinCount   = 5    // occurrences required before a pattern forms
	qualityMinCount    = 10
	degradationRatio   = 2.0
)

// FailureService is the scheduled batch miner: it scans recent accuracy
// samples, data quality issues and performance samples for recurring
// problems and upserts failure patterns. Errors propagate to the scheduler.
type FailureService struct {
	db *gorm.DB
}

func NewFailureService(db *gorm.DB) *FailureService {
	return &FailureService{db: db}
}

// MinePatterns runs all three passes for the window ending at now.
func (fs *FailureService) MinePatterns(now time.Time) error {
	if err := fs.mineAccuracy(now); err != nil {
		return fmt.Errorf("accuracy pass failed: %w", err)
	}
	if err := fs.mineDataQuality(now); err != nil {
		return fmt.Errorf("data quality pass failed: %w", err)
	}
	if err := fs.minePerformance(now); err != nil {
		return fmt.Errorf("performance pass failed: %w", err)
	}
	return nil
}

type accuracyGroup struct {
	MetricType   string
	BusinessUnit string
	Count        int64
	AvgDeviation float64
}

// mineAccuracy groups last-24h samples over the deviation threshold by
// (metric, unit) and promotes groups with more than five occurrences.
func (fs *FailureService) mineAccuracy(now time.Time) error {
	var groups []accuracyGroup
	err := fs.db.Model(&models.AccuracyMetric{}).
		Select("metric_type, business_unit, COUNT(*) AS count, AVG(pct_diff) AS avg_deviation").
		Where("measured_at > ? AND pct_diff > ?", now.Add(-miningWindow), deviationThreshold).
		Group("metric_type, business_unit").
		Having("COUNT(*) > ?", accuracyMinCount).
		Scan(&groups).Error
	if err != nil {
		return err
	}

	for _, g := range groups {
		pattern := models.FailurePattern{
			PatternType:     "recurring_deviation",
			Category:        models.CategoryAccuracy,
			AffectedMetrics: g.MetricType + "/" + g.BusinessUnit,
			RootCause: fmt.Sprintf("%d samples for %s in unit %s exceeded %.0f%% deviation in 24h (avg %.1f%%)",
				g.Count, g.MetricType, g.BusinessUnit, deviationThreshold, g.AvgDeviation),
			Severity:       severityForDeviation(g.AvgDeviation),
			LastOccurrence: now,
		}
		if err := fs.upsert(&pattern); err != nil {
			return err
		}
	}
	return nil
}

// severityForDeviation buckets average deviation with the legacy thresholds.
func severityForDeviation(avgDeviation float64) models.PatternSeverity {
	switch {
	case avgDeviation > 25:
		return models.SeverityCritical
	case avgDeviation > 15:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

type qualityGroup struct {
	IssueType string
	Count     int64
}

// mineDataQuality promotes issue types logged more than ten times in 24h.
func (fs *FailureService) mineDataQuality(now time.Time) error {
	var groups []qualityGroup
	err := fs.db.Model(&models.DataQualityIssue{}).
		Select("issue_type, COUNT(*) AS count").
		Where("created_at > ?", now.Add(-miningWindow)).
		Group("issue_type").
		Having("COUNT(*) > ?", qualityMinCount).
		Scan(&groups).Error
	if err != nil {
		return err
	}

	for _, g := range groups {
		pattern := models.FailurePattern{
			PatternType:     g.IssueType,
			Category:        models.CategoryDataQuality,
			AffectedMetrics: "input_parameters",
			RootCause:       fmt.Sprintf("%d %q data quality issues logged in 24h", g.Count, g.IssueType),
			Severity:        models.SeverityMedium,
			LastOccurrence:  now,
		}
		if err := fs.upsert(&pattern); err != nil {
			return err
		}
	}
	return nil
}

// minePerformance compares the latest execution time per operation type
// against its trailing-7-day average and flags a >2x regression.
func (fs *FailureService) minePerformance(now time.Time) error {
	var opTypes []string
	if err := fs.db.Model(&models.PerformanceSample{}).
		Distinct("operation_type").
		Where("created_at > ?", now.Add(-performanceWindow)).
		Pluck("operation_type", &opTypes).Error; err != nil {
		return err
	}

	for _, op := range opTypes {
		var latest models.PerformanceSample
		if err := fs.db.Where("operation_type = ?", op).
			Order("created_at DESC").First(&latest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}

		var avg *float64
		if err := fs.db.Model(&models.PerformanceSample{}).
			Select("AVG(duration_ms)").
			Where("operation_type = ? AND created_at > ?", op, now.Add(-performanceWindow)).
			Scan(&avg).Error; err != nil {
			return err
		}
		if avg == nil || *avg <= 0 {
			continue
		}

		if float64(latest.DurationMs) > degradationRatio*(*avg) {
			pattern := models.FailurePattern{
				PatternType:     "execution_degradation",
				Category:        models.CategoryPerformance,
				AffectedMetrics: op,
				RootCause: fmt.Sprintf("latest %s run took %dms against a 7-day average of %.0fms",
					op, latest.DurationMs, *avg),
				Severity:       models.SeverityHigh,
				LastOccurrence: now,
			}
			if err := fs.upsert(&pattern); err != nil {
				return err
			}
		}
	}
	return nil
}

// upsert deduplicates on (pattern type, category, affected metrics). A
// re-detection increments the occurrence count, refreshes severity and last
// occurrence, and reopens a resolved pattern. A unique-violation from a
// concurrent miner is retried as an update.
func (fs *FailureService) upsert(detected *models.FailurePattern) error {
	var existing models.FailurePattern
	err := fs.db.Where("pattern_type = ? AND category = ? AND affected_metrics = ?",
		detected.PatternType, detected.Category, detected.AffectedMetrics).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		createErr := fs.db.Create(detected).Error
		if createErr == nil {
			return nil
		}
		var pqErr *pq.Error
		if errors.As(createErr, &pqErr) && pqErr.Code == "23505" {
			// Lost the insert race; fall through to the update path.
			if err := fs.db.Where("pattern_type = ? AND category = ? AND affected_metrics = ?",
				detected.PatternType, detected.Category, detected.AffectedMetrics).
				First(&existing).Error; err != nil {
				return err
			}
		} else {
			return createErr
		}
	} else if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"occurrence_count":  gorm.Expr("occurrence_count + 1"),
		"last_occurrence":   detected.LastOccurrence,
		"severity":          detected.Severity,
		"root_cause":        detected.RootCause,
		"resolution_status": models.ResolutionOpen,
		"resolved_at":       nil,
	}
	if err := fs.db.Model(&models.FailurePattern{}).
		Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return err
	}

	logger.Info("Failure pattern recurrence recorded", map[string]interface{}{
		"pattern_type":     detected.PatternType,
		"category":         detected.Category,
		"affected_metrics": detected.AffectedMetrics,
	})
	return nil
}

// ActivePatterns returns open patterns ranked by severity then recurrence.
func (fs *FailureService) ActivePatterns() ([]models.FailurePattern, error) {
	var patterns []models.FailurePattern
	err := fs.db.Where("resolution_status = ?", models.ResolutionOpen).
		Order("CASE severity WHEN 'CRITICAL' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END DESC, occurrence_count DESC").
		Find(&patterns).Error
	if err != nil {
		return nil, err
	}
	return patterns, nil
}

// Resolve marks a pattern resolved.
func (fs *FailureService) Resolve(patternID uint) error {
	now := time.Now()
	res := fs.db.Model(&models.FailurePattern{}).
		Where("id = ?", patternID).
		Updates(map[string]interface{}{
			"resolution_status": models.ResolutionResolved,
			"resolved_at":       &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
