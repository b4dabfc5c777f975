package services

import (
	"math"
	"testing"
	"time"

	"github.com/staffval/backend/internal/models"
)

func TestGenerateTrendsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ts := NewTrendService(db)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	for i, pct := range []float64{2, 3, 4, 5} {
		err := db.Create(&models.AccuracyMetric{
			MeasuredAt:   start.Add(time.Duration(i) * 24 * time.Hour),
			BusinessUnit: "support",
			MetricType:   "agents_required",
			PctDiff:      pct,
		}).Error
		if err != nil {
			t.Fatalf("Failed to seed metric: %v", err)
		}
	}

	if err := ts.GenerateTrends(start, end); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if err := ts.GenerateTrends(start, end); err != nil {
		t.Fatalf("Rerun failed: %v", err)
	}

	var trends []models.HistoricalTrend
	if err := db.Find(&trends).Error; err != nil {
		t.Fatalf("Failed to list trends: %v", err)
	}
	if len(trends) != 1 {
		t.Fatalf("Expected 1 trend row after rerun, got %d", len(trends))
	}

	trend := trends[0]
	if trend.DataPointCount != 4 {
		t.Errorf("DataPointCount = %d, want 4", trend.DataPointCount)
	}
	// pct diffs 2,3,4,5: avg 3.5 -> accuracy 96.5
	if math.Abs(trend.AvgAccuracy-96.5) > 1e-9 {
		t.Errorf("AvgAccuracy = %v, want 96.5", trend.AvgAccuracy)
	}
	// first half accuracy 97.5, second half 95.5 -> delta -2
	if math.Abs(trend.TrendDelta-(-2)) > 1e-9 {
		t.Errorf("TrendDelta = %v, want -2", trend.TrendDelta)
	}
}

func TestGenerateTrendsRejectsEmptyPeriod(t *testing.T) {
	db := newTestDB(t)
	ts := NewTrendService(db)

	now := time.Now()
	if err := ts.GenerateTrends(now, now); err == nil {
		t.Error("Expected error for zero-length period, got nil")
	}
}
