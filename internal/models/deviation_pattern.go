package models

import (
	"time"
)

// DeviationPattern is the running statistical profile of pct differences for
// one (scenario, metric, unit) key. The average/min/max/count update on every
// sample; stddev, confidence interval and tracking signal are recomputed in
// full every tenth sample over a trailing 30-day window.
type DeviationPattern struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	ScenarioType string `json:"scenarioType" gorm:"not null;uniqueIndex:idx_deviation_key"`
	MetricType   string `json:"metricType" gorm:"not null;uniqueIndex:idx_deviation_key"`
	BusinessUnit string `json:"businessUnit" gorm:"not null;uniqueIndex:idx_deviation_key"`

	AvgDeviation float64 `json:"avgDeviation"`
	SampleCount  int64   `json:"sampleCount"`
	MinDeviation float64 `json:"minDeviation"`
	MaxDeviation float64 `json:"maxDeviation"`
	StdDev       float64 `json:"stdDev"`
	CILowerBound float64 `json:"ciLowerBound"` // 95% interval
	CIUpperBound float64 `json:"ciUpperBound"`

	// Cumulative signed bias divided by mean absolute deviation; drifts away
	// from zero when the candidate errs persistently in one direction.
	TrackingSignal float64 `json:"trackingSignal"`

	LastFullRecompute *time.Time `json:"lastFullRecompute"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (DeviationPattern) TableName() string {
	return "deviation_patterns"
}
