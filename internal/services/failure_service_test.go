package services

import (
	"testing"
	"time"

	"github.com/staffval/backend/internal/models"
)

func TestSeverityForDeviation(t *testing.T) {
	tests := []struct {
		avgDeviation float64
		want         models.PatternSeverity
	}{
		{avgDeviation: 12, want: models.SeverityMedium},
		{avgDeviation: 15, want: models.SeverityMedium},
		{avgDeviation: 16, want: models.SeverityHigh},
		{avgDeviation: 25, want: models.SeverityHigh},
		{avgDeviation: 26, want: models.SeverityCritical},
		{avgDeviation: 80, want: models.SeverityCritical},
	}

	for _, test := range tests {
		got := severityForDeviation(test.avgDeviation)
		if got != test.want {
			t.Errorf("severityForDeviation(%v) = %v, want %v", test.avgDeviation, got, test.want)
		}
	}
}

func TestMineAccuracyPromotesRecurringDeviation(t *testing.T) {
	db := newTestDB(t)
	fs := NewFailureService(db)
	now := time.Now()

	// Six samples at 12% deviation in the last 24h: over the 10% threshold
	// and past the minimum count, averaging into the MEDIUM bucket.
	for i := 0; i < 6; i++ {
		err := db.Create(&models.AccuracyMetric{
			MeasuredAt:   now.Add(-time.Duration(i) * time.Hour),
			BusinessUnit: "support",
			MetricType:   "agents_required",
			PctDiff:      12,
		}).Error
		if err != nil {
			t.Fatalf("Failed to seed metric: %v", err)
		}
	}

	if err := fs.MinePatterns(now); err != nil {
		t.Fatalf("First mining pass failed: %v", err)
	}

	var patterns []models.FailurePattern
	if err := db.Find(&patterns).Error; err != nil {
		t.Fatalf("Failed to list patterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("Expected exactly 1 pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.Category != models.CategoryAccuracy {
		t.Errorf("Category = %s, want %s", p.Category, models.CategoryAccuracy)
	}
	if p.Severity != models.SeverityMedium {
		t.Errorf("Severity = %s, want %s", p.Severity, models.SeverityMedium)
	}
	if p.ResolutionStatus != models.ResolutionOpen {
		t.Errorf("ResolutionStatus = %s, want %s", p.ResolutionStatus, models.ResolutionOpen)
	}

	// A second pass dedups onto the same row and bumps the count.
	if err := fs.MinePatterns(now); err != nil {
		t.Fatalf("Second mining pass failed: %v", err)
	}
	if err := db.Find(&patterns).Error; err != nil {
		t.Fatalf("Failed to list patterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("Expected the rerun to dedup to 1 pattern, got %d", len(patterns))
	}
	if patterns[0].OccurrenceCount != 2 {
		t.Errorf("OccurrenceCount = %d, want 2", patterns[0].OccurrenceCount)
	}
}

func TestMineBelowThresholdsProducesNothing(t *testing.T) {
	db := newTestDB(t)
	fs := NewFailureService(db)
	now := time.Now()

	// Five qualifying samples: one short of the promotion count.
	for i := 0; i < 5; i++ {
		err := db.Create(&models.AccuracyMetric{
			MeasuredAt:   now.Add(-time.Duration(i) * time.Hour),
			BusinessUnit: "support",
			MetricType:   "agents_required",
			PctDiff:      12,
		}).Error
		if err != nil {
			t.Fatalf("Failed to seed metric: %v", err)
		}
	}

	if err := fs.MinePatterns(now); err != nil {
		t.Fatalf("Mining pass failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.FailurePattern{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count patterns: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no patterns below the count threshold, got %d", count)
	}
}
