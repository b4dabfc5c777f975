package models

import (
	"time"
)

// HistoricalTrend is one aggregated accuracy period for a (unit, metric)
// pair. Upserted by the trend engine on its natural key, so a rerun over the
// same period replaces rather than duplicates.
type HistoricalTrend struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PeriodStart  time.Time `json:"periodStart" gorm:"not null;uniqueIndex:idx_trend_key"`
	PeriodEnd    time.Time `json:"periodEnd" gorm:"not null;uniqueIndex:idx_trend_key"`
	BusinessUnit string    `json:"businessUnit" gorm:"not null;uniqueIndex:idx_trend_key"`
	MetricType   string    `json:"metricType" gorm:"not null;uniqueIndex:idx_trend_key"`

	AvgAccuracy    float64 `json:"avgAccuracy"` // 100 - avg pct diff
	TrendDelta     float64 `json:"trendDelta"`  // second-half accuracy minus first-half
	Volatility     float64 `json:"volatility"`  // stddev of pct diff
	DataPointCount int64   `json:"dataPointCount"`
	AnomalyCount   int64   `json:"anomalyCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (HistoricalTrend) TableName() string {
	return "historical_trends"
}
