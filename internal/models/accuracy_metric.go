package models

import (
	"time"
)

// AccuracyMetric is one append-only time-series point produced by the
// accuracy tracker. Rows are never updated, so concurrent writers need no
// coordination here.
type AccuracyMetric struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	MeasuredAt       time.Time `json:"measuredAt" gorm:"not null;index"`
	BusinessUnit     string    `json:"businessUnit" gorm:"not null;index:idx_accuracy_key"`
	MetricType       string    `json:"metricType" gorm:"not null;index:idx_accuracy_key"`
	ReferenceValue   float64   `json:"referenceValue"`
	CandidateValue   float64   `json:"candidateValue"`
	AbsDiff          float64   `json:"absDiff"`
	PctDiff          float64   `json:"pctDiff"`
	ConfidenceScore  float64   `json:"confidenceScore"`
	DataQualityScore float64   `json:"dataQualityScore"`
	IsOutlier        bool      `json:"isOutlier"`
	Metadata         JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (AccuracyMetric) TableName() string {
	return "accuracy_metrics"
}
