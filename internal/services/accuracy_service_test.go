package services

import (
	"math"
	"testing"
	"time"

	"github.com/staffval/backend/internal/models"
)

func TestConfidenceScoreBounds(t *testing.T) {
	histValues := []float64{0, 25, 50, 75, 100}
	qualityValues := []float64{0, 50, 100}
	counts := []int64{0, 1, 5, 100, 100000}

	for _, hist := range histValues {
		for _, quality := range qualityValues {
			for _, count := range counts {
				score := confidenceScore(hist, quality, count)
				if score < 0 || score > 100 {
					t.Errorf("confidenceScore(%v, %v, %v) = %v outside [0,100]",
						hist, quality, count, score)
				}
			}
		}
	}
}

func TestConfidenceScoreBlend(t *testing.T) {
	// All defaults: 0.2*50 + 0.3*50 + 0.3*100 + 0.2*volumeFactor(0)
	got := confidenceScore(50, 100, 0)
	want := 0.2*50 + 0.3*50 + 0.3*100 + 0.2*10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("confidenceScore(50, 100, 0) = %v, want %v", got, want)
	}
}

func TestVolumeFactor(t *testing.T) {
	if got := volumeFactor(0); got != 10 {
		t.Errorf("volumeFactor(0) = %v, want floor of 10", got)
	}
	if got := volumeFactor(10000000); got != 100 {
		t.Errorf("volumeFactor(1e7) = %v, want ceiling of 100", got)
	}

	want := math.Log(51) * 20
	if got := volumeFactor(50); math.Abs(got-want) > 1e-9 {
		t.Errorf("volumeFactor(50) = %v, want %v", got, want)
	}
}

func TestClassifyScenario(t *testing.T) {
	tests := []struct {
		metricType string
		want       string
	}{
		{metricType: "agents_required", want: "agent_sizing"},
		{metricType: "service_level", want: "service_level"},
		{metricType: "occupancy", want: "occupancy"},
		{metricType: "multi_skill_coverage", want: "multi_skill"},
		{metricType: "avg_wait_time", want: "general"},
		{metricType: "AGENTS_REQUIRED", want: "agent_sizing"},
	}

	for _, test := range tests {
		got := classifyScenario(test.metricType)
		if got != test.want {
			t.Errorf("classifyScenario(%q) = %q, want %q", test.metricType, got, test.want)
		}
	}
}

func TestOnlineAvgMatchesMean(t *testing.T) {
	values := []float64{4.2, 1.0, 7.7, 3.3, 9.9, 0.5, 6.1}

	avg := 0.0
	for i, v := range values {
		avg = onlineAvg(avg, int64(i), v)
	}

	if want := mean(values); math.Abs(avg-want) > 1e-9 {
		t.Errorf("Running average %v diverged from mean %v", avg, want)
	}
}

func TestOutlierRequiresVarianceHistory(t *testing.T) {
	db := newTestDB(t)
	as := NewAccuracyService(db)
	now := time.Now()

	sample := func(pct float64) {
		err := db.Create(&models.AccuracyMetric{
			MeasuredAt:   now,
			BusinessUnit: "support",
			MetricType:   "agents_required",
			PctDiff:      pct,
		}).Error
		if err != nil {
			t.Fatalf("Failed to seed sample: %v", err)
		}
	}

	// No history: a huge deviation is never flagged.
	if as.isOutlier("support", "agents_required", 500, now) {
		t.Error("Flagged outlier with no history")
	}

	// A single sample is still below the minimum for a variance estimate.
	sample(2)
	if as.isOutlier("support", "agents_required", 500, now) {
		t.Error("Flagged outlier with one historical sample")
	}

	// Identical samples have zero variance; still no flag.
	sample(2)
	sample(2)
	if as.isOutlier("support", "agents_required", 500, now) {
		t.Error("Flagged outlier with zero historical variance")
	}

	// With real variance a far-out deviation is flagged.
	sample(8)
	if !as.isOutlier("support", "agents_required", 500, now) {
		t.Error("Missed a deviation far outside the historical spread")
	}
}

func TestMissingMetadataLogsQualityIssue(t *testing.T) {
	db := newTestDB(t)
	as := NewAccuracyService(db)

	if got := as.dataQualityScore("billing", nil); got != 80 {
		t.Errorf("dataQualityScore with nil metadata = %v, want 80", got)
	}

	var issues []models.DataQualityIssue
	if err := db.Where("issue_type = ?", "missing_metadata").Find(&issues).Error; err != nil {
		t.Fatalf("Failed to list issues: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected 1 logged issue, got %d", len(issues))
	}
	if issues[0].BusinessUnit != "billing" {
		t.Errorf("Issue business unit = %q, want billing", issues[0].BusinessUnit)
	}
}

func TestMixedTypeMetadataPenalized(t *testing.T) {
	db := newTestDB(t)
	as := NewAccuracyService(db)

	metadata := map[string]interface{}{
		"source":   "forecast-feed",
		"segments": []interface{}{"a", "b"},
	}
	if got := as.dataQualityScore("billing", metadata); got != 90 {
		t.Errorf("dataQualityScore with one mixed-type field = %v, want 90", got)
	}

	var count int64
	if err := db.Model(&models.DataQualityIssue{}).
		Where("issue_type = ?", "mixed_types").Count(&count).Error; err != nil {
		t.Fatalf("Failed to count issues: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 mixed_types issue, got %d", count)
	}
}
