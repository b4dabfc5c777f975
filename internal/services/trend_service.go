package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/staffval/backend/internal/helpers"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

// TrendService aggregates accuracy history into periods and projects the
// next period with a single-step linear fit. Reruns over the same period
// upsert on the natural key, so the pass is idempotent.
type TrendService struct {
	db *gorm.DB
}

func NewTrendService(db *gorm.DB) *TrendService {
	return &TrendService{db: db}
}

type trendKey struct {
	BusinessUnit string
	MetricType   string
}

// GenerateTrends computes one HistoricalTrend row per (unit, metric) pair
// with samples in [periodStart, periodEnd).
func (ts *TrendService) GenerateTrends(periodStart, periodEnd time.Time) error {
	if !periodEnd.After(periodStart) {
		return &ValidationError{Field: "period_end", Reason: "must be after period_start"}
	}

	var keys []trendKey
	if err := ts.db.Model(&models.AccuracyMetric{}).
		Select("DISTINCT business_unit, metric_type").
		Where("measured_at >= ? AND measured_at < ?", periodStart, periodEnd).
		Scan(&keys).Error; err != nil {
		return fmt.Errorf("failed to list trend keys: %w", err)
	}

	for _, key := range keys {
		var rows []models.AccuracyMetric
		if err := ts.db.
			Where("business_unit = ? AND metric_type = ? AND measured_at >= ? AND measured_at < ?",
				key.BusinessUnit, key.MetricType, periodStart, periodEnd).
			Order("measured_at ASC").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to load samples for %s/%s: %w", key.BusinessUnit, key.MetricType, err)
		}
		if len(rows) == 0 {
			continue
		}

		pcts := make([]float64, len(rows))
		anomalies := int64(0)
		for i, r := range rows {
			pcts[i] = r.PctDiff
			if r.IsOutlier {
				anomalies++
			}
		}

		trend := &models.HistoricalTrend{
			PeriodStart:    periodStart,
			PeriodEnd:      periodEnd,
			BusinessUnit:   key.BusinessUnit,
			MetricType:     key.MetricType,
			AvgAccuracy:    100 - mean(pcts),
			TrendDelta:     halfSplitTrend(pcts),
			Volatility:     stddev(pcts),
			DataPointCount: int64(len(rows)),
			AnomalyCount:   anomalies,
		}
		if err := ts.upsert(trend); err != nil {
			return err
		}
	}
	return nil
}

// halfSplitTrend is second-half accuracy minus first-half accuracy; positive
// means the candidate improved within the period.
func halfSplitTrend(pcts []float64) float64 {
	if len(pcts) < 2 {
		return 0
	}
	mid := len(pcts) / 2
	firstAccuracy := 100 - mean(pcts[:mid])
	secondAccuracy := 100 - mean(pcts[mid:])
	return secondAccuracy - firstAccuracy
}

// upsert replaces the row for the natural key. Concurrent generators racing
// on the insert are resolved through the unique index.
func (ts *TrendService) upsert(trend *models.HistoricalTrend) error {
	var existing models.HistoricalTrend
	err := ts.db.Where(
		"period_start = ? AND period_end = ? AND business_unit = ? AND metric_type = ?",
		trend.PeriodStart, trend.PeriodEnd, trend.BusinessUnit, trend.MetricType).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		createErr := ts.db.Create(trend).Error
		if createErr == nil {
			return nil
		}
		var pqErr *pq.Error
		if !errors.As(createErr, &pqErr) || pqErr.Code != "23505" {
			return createErr
		}
		if err := ts.db.Where(
			"period_start = ? AND period_end = ? AND business_unit = ? AND metric_type = ?",
			trend.PeriodStart, trend.PeriodEnd, trend.BusinessUnit, trend.MetricType).
			First(&existing).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return ts.db.Model(&models.HistoricalTrend{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"avg_accuracy":     trend.AvgAccuracy,
			"trend_delta":      trend.TrendDelta,
			"volatility":       trend.Volatility,
			"data_point_count": trend.DataPointCount,
			"anomaly_count":    trend.AnomalyCount,
		}).Error
}

// ForecastResult is the one-step linear projection for a key.
type ForecastResult struct {
	BusinessUnit    string    `json:"businessUnit"`
	MetricType      string    `json:"metricType"`
	NextPeriodStart time.Time `json:"nextPeriodStart"`
	PredictedValue  float64   `json:"predictedValue"`
	Slope           float64   `json:"slope"`
	PeriodsUsed     int       `json:"periodsUsed"`
}

// Forecast fits avg accuracy against period midpoint epoch seconds and
// projects one period ahead. No seasonality, just the straight line.
func (ts *TrendService) Forecast(businessUnit, metricType string) (*ForecastResult, error) {
	var trends []models.HistoricalTrend
	if err := ts.db.
		Where("business_unit = ? AND metric_type = ?", businessUnit, metricType).
		Order("period_start ASC").
		Find(&trends).Error; err != nil {
		return nil, err
	}
	if len(trends) < 2 {
		return nil, fmt.Errorf("need at least 2 periods for %s/%s, have %d", businessUnit, metricType, len(trends))
	}

	xs := make([]float64, len(trends))
	ys := make([]float64, len(trends))
	for i, t := range trends {
		xs[i] = periodMidpoint(t.PeriodStart, t.PeriodEnd)
		ys[i] = t.AvgAccuracy
	}

	slope, intercept, ok := olsFit(xs, ys)
	if !ok {
		return nil, fmt.Errorf("degenerate period spacing for %s/%s", businessUnit, metricType)
	}

	last := trends[len(trends)-1]
	periodLength := last.PeriodEnd.Sub(last.PeriodStart)
	nextStart := last.PeriodEnd
	nextMid := periodMidpoint(nextStart, nextStart.Add(periodLength))

	return &ForecastResult{
		BusinessUnit:    businessUnit,
		MetricType:      metricType,
		NextPeriodStart: nextStart,
		PredictedValue:  helpers.Clamp(slope*nextMid+intercept, 0, 100),
		Slope:           slope,
		PeriodsUsed:     len(trends),
	}, nil
}

func periodMidpoint(start, end time.Time) float64 {
	return float64(start.Unix()) + end.Sub(start).Seconds()/2
}

// CorrelationReport carries the diagnostic correlations. They are surfaced
// for analysts and never gate any behavior.
type CorrelationReport struct {
	VolumeServiceLevel     float64 `json:"volumeServiceLevel"`
	HandleTimeServiceLevel float64 `json:"handleTimeServiceLevel"`
	SampleCount            int     `json:"sampleCount"`
}

// Correlations computes Pearson coefficients over reference results in range.
func (ts *TrendService) Correlations(start, end time.Time) (*CorrelationReport, error) {
	var results []models.CalculationResult
	if err := ts.db.
		Where("engine = ? AND created_at >= ? AND created_at < ?", models.EngineReference, start, end).
		Find(&results).Error; err != nil {
		return nil, err
	}

	volumes := make([]float64, len(results))
	handleTimes := make([]float64, len(results))
	serviceLevels := make([]float64, len(results))
	for i, r := range results {
		volumes[i] = r.OfferedCalls
		handleTimes[i] = r.AvgHandleTime
		serviceLevels[i] = r.ServiceLevel
	}

	report := &CorrelationReport{SampleCount: len(results)}
	if v, ok := pearson(volumes, serviceLevels); ok {
		report.VolumeServiceLevel = v
	}
	if v, ok := pearson(handleTimes, serviceLevels); ok {
		report.HandleTimeServiceLevel = v
	}
	return report, nil
}

// ListTrends returns stored periods, optionally filtered by range.
func (ts *TrendService) ListTrends(businessUnit, metricType string, since time.Time) ([]models.HistoricalTrend, error) {
	q := ts.db.Order("period_start DESC")
	if businessUnit != "" {
		q = q.Where("business_unit = ?", businessUnit)
	}
	if metricType != "" {
		q = q.Where("metric_type = ?", metricType)
	}
	if !since.IsZero() {
		q = q.Where("period_start >= ?", since)
	}
	var trends []models.HistoricalTrend
	if err := q.Find(&trends).Error; err != nil {
		return nil, err
	}
	return trends, nil
}
