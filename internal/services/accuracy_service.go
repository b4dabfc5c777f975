package services

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/staffval/backend/internal/helpers"
	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

const (
	historicalWindow   = 30 * 24 * time.Hour
	outlierWindow      = 7 * 24 * time.Hour
	fullRecomputeEvery = 10
)

// TrackResult is what callers get back for one accuracy measurement.
type TrackResult struct {
	AbsDiff         float64 `json:"absDiff"`
	PctDiff         float64 `json:"pctDiff"`
	ConfidenceScore float64 `json:"confidenceScore"`
	IsOutlier       bool    `json:"isOutlier"`
}

type AccuracyService struct {
	db *gorm.DB

	// Serializes DeviationPattern read-modify-write per (scenario, metric,
	// unit) key so concurrent trackers cannot lose updates.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func NewAccuracyService(db *gorm.DB) *AccuracyService {
	return &AccuracyService{
		db:       db,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

func (as *AccuracyService) lockKey(key string) func() {
	as.mu.Lock()
	lock, ok := as.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		as.keyLocks[key] = lock
	}
	as.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Track records one reference/candidate measurement: appends a time-series
// point, scores confidence, flags outliers and folds the deviation into the
// running pattern for its key.
func (as *AccuracyService) Track(businessUnit, metricType string, referenceValue, candidateValue float64, metadata map[string]interface{}) (*TrackResult, error) {
	now := time.Now()
	absDiff := math.Abs(referenceValue - candidateValue)
	pct := pctDiff(referenceValue, candidateValue)

	dataQuality := as.dataQualityScore(businessUnit, metadata)
	histAccuracy := as.historicalAccuracy(businessUnit, metricType, now)
	sampleCount := as.sampleCount(businessUnit, metricType, now)

	score := confidenceScore(histAccuracy, dataQuality, sampleCount)
	outlier := as.isOutlier(businessUnit, metricType, pct, now)

	metric := &models.AccuracyMetric{
		MeasuredAt:       now,
		BusinessUnit:     businessUnit,
		MetricType:       metricType,
		ReferenceValue:   referenceValue,
		CandidateValue:   candidateValue,
		AbsDiff:          absDiff,
		PctDiff:          pct,
		ConfidenceScore:  score,
		DataQualityScore: dataQuality,
		IsOutlier:        outlier,
		Metadata:         models.JSONB(metadata),
	}
	if err := as.db.Create(metric).Error; err != nil {
		return nil, fmt.Errorf("failed to append accuracy metric: %w", err)
	}

	if err := as.updateDeviationPattern(businessUnit, metricType, pct, now); err != nil {
		// Pattern maintenance is best effort; the appended sample is the
		// record of truth and a later full recompute repairs the aggregate.
		logger.WithTracker(businessUnit, metricType).Warn("Deviation pattern update failed: " + err.Error())
	}

	return &TrackResult{
		AbsDiff:         absDiff,
		PctDiff:         pct,
		ConfidenceScore: score,
		IsOutlier:       outlier,
	}, nil
}

// confidenceScore blends the fixed heuristic weights. The weights and clamps
// are deliberate behavioral parity with the legacy scorer, not derived
// statistics.
func confidenceScore(historicalAccuracy, dataQuality float64, sampleCount int64) float64 {
	const base = 50.0
	score := 0.2*base +
		0.3*historicalAccuracy +
		0.3*dataQuality +
		0.2*volumeFactor(sampleCount)
	return helpers.Clamp(score, 0, 100)
}

// volumeFactor rewards sample volume on a log scale, floored at 10.
func volumeFactor(n int64) float64 {
	return helpers.Clamp(math.Log(float64(n)+1)*20, 10, 100)
}

// dataQualityScore starts from the caller-supplied score (default 100) and
// penalizes missing or mixed-type metadata. Penalties are logged as
// non-fatal data quality issues for the miner.
func (as *AccuracyService) dataQualityScore(businessUnit string, metadata map[string]interface{}) float64 {
	score := 100.0
	if metadata == nil {
		as.logIssue(businessUnit, &DataQualityError{
			IssueType: "missing_metadata",
			Detail:    "no metadata supplied with measurement",
		})
		return 80
	}
	if supplied, ok := metadata["data_quality_score"]; ok {
		if f, ok := toFloat(supplied); ok {
			score = helpers.Clamp(f, 0, 100)
		}
	}
	for key, value := range metadata {
		if key == "data_quality_score" {
			continue
		}
		switch value.(type) {
		case string, bool, float64, float32, int, int64, nil:
		default:
			score -= 10
			as.logIssue(businessUnit, &DataQualityError{
				IssueType: "mixed_types",
				Detail:    fmt.Sprintf("metadata field %q has unexpected type %T", key, value),
			})
		}
	}
	return helpers.Clamp(score, 0, 100)
}

// logIssue records a non-fatal quality problem. The error itself never
// propagates; it lowers the score and feeds the miner.
func (as *AccuracyService) logIssue(businessUnit string, issue *DataQualityError) {
	record := &models.DataQualityIssue{
		IssueType:    issue.IssueType,
		BusinessUnit: businessUnit,
		Detail:       issue.Detail,
		Severity:     "low",
	}
	if err := as.db.Create(record).Error; err != nil {
		logger.WithTracker(businessUnit, issue.IssueType).Warn("Failed to log data quality issue: " + err.Error())
		return
	}
	logger.WithTracker(businessUnit, issue.IssueType).Warn(issue.Error())
}

// historicalAccuracy averages accuracy (100 - pct diff, floored at 0) for
// the key over the trailing 30 days. Defaults to 50 with no history.
func (as *AccuracyService) historicalAccuracy(businessUnit, metricType string, now time.Time) float64 {
	var pcts []float64
	if err := as.db.Model(&models.AccuracyMetric{}).
		Where("business_unit = ? AND metric_type = ? AND measured_at > ?",
			businessUnit, metricType, now.Add(-historicalWindow)).
		Pluck("pct_diff", &pcts).Error; err != nil || len(pcts) == 0 {
		return 50
	}
	total := 0.0
	for _, p := range pcts {
		total += helpers.Clamp(100-p, 0, 100)
	}
	return total / float64(len(pcts))
}

func (as *AccuracyService) sampleCount(businessUnit, metricType string, now time.Time) int64 {
	var count int64
	as.db.Model(&models.AccuracyMetric{}).
		Where("business_unit = ? AND metric_type = ? AND measured_at > ?",
			businessUnit, metricType, now.Add(-historicalWindow)).
		Count(&count)
	return count
}

// isOutlier flags a deviation more than three trailing-7-day standard
// deviations out. Fewer than two historical samples means no variance
// estimate, so never flag.
func (as *AccuracyService) isOutlier(businessUnit, metricType string, pct float64, now time.Time) bool {
	var pcts []float64
	if err := as.db.Model(&models.AccuracyMetric{}).
		Where("business_unit = ? AND metric_type = ? AND measured_at > ?",
			businessUnit, metricType, now.Add(-outlierWindow)).
		Pluck("pct_diff", &pcts).Error; err != nil {
		return false
	}
	if len(pcts) < 2 {
		return false
	}
	sd := stddev(pcts)
	if sd == 0 {
		return false
	}
	return pct > 3*sd
}

// classifyScenario maps a metric type onto a named scenario category.
func classifyScenario(metricType string) string {
	mt := strings.ToLower(metricType)
	switch {
	case strings.Contains(mt, "agent"):
		return "agent_sizing"
	case strings.Contains(mt, "service_level"):
		return "service_level"
	case strings.Contains(mt, "occupancy"):
		return "occupancy"
	case strings.Contains(mt, "multi_skill"):
		return "multi_skill"
	default:
		return "general"
	}
}

// updateDeviationPattern folds one deviation into the running aggregate
// under the per-key lock. Every tenth sample triggers a full recompute of
// stddev, the 95% confidence interval and the tracking signal over the
// trailing 30 days.
func (as *AccuracyService) updateDeviationPattern(businessUnit, metricType string, pct float64, now time.Time) error {
	scenario := classifyScenario(metricType)
	key := scenario + "|" + metricType + "|" + businessUnit
	unlock := as.lockKey(key)
	defer unlock()

	var pattern models.DeviationPattern
	err := as.db.Where("scenario_type = ? AND metric_type = ? AND business_unit = ?",
		scenario, metricType, businessUnit).First(&pattern).Error
	if err == gorm.ErrRecordNotFound {
		pattern = models.DeviationPattern{
			ScenarioType: scenario,
			MetricType:   metricType,
			BusinessUnit: businessUnit,
			AvgDeviation: pct,
			SampleCount:  1,
			MinDeviation: pct,
			MaxDeviation: pct,
		}
		return as.db.Create(&pattern).Error
	}
	if err != nil {
		return err
	}

	pattern.AvgDeviation = onlineAvg(pattern.AvgDeviation, pattern.SampleCount, pct)
	pattern.SampleCount++
	if pct < pattern.MinDeviation {
		pattern.MinDeviation = pct
	}
	if pct > pattern.MaxDeviation {
		pattern.MaxDeviation = pct
	}

	if pattern.SampleCount%fullRecomputeEvery == 0 {
		if err := as.recomputePattern(&pattern, now); err != nil {
			return err
		}
	}

	return as.db.Save(&pattern).Error
}

// recomputePattern rebuilds the derived statistics from the trailing 30-day
// window for the pattern's key.
func (as *AccuracyService) recomputePattern(pattern *models.DeviationPattern, now time.Time) error {
	var rows []models.AccuracyMetric
	if err := as.db.
		Where("business_unit = ? AND metric_type = ? AND measured_at > ?",
			pattern.BusinessUnit, pattern.MetricType, now.Add(-historicalWindow)).
		Order("measured_at ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	pcts := make([]float64, len(rows))
	signed := make([]float64, len(rows))
	for i, r := range rows {
		pcts[i] = r.PctDiff
		signed[i] = r.CandidateValue - r.ReferenceValue
	}

	avg := mean(pcts)
	sd := stddev(pcts)
	n := float64(len(pcts))
	margin := 1.96 * sd / math.Sqrt(n)

	pattern.StdDev = sd
	pattern.CILowerBound = avg - margin
	pattern.CIUpperBound = avg + margin
	pattern.TrackingSignal = trackingSignal(signed)
	pattern.LastFullRecompute = &now
	return nil
}

// TrackComparison fans a stored comparison out into per-metric accuracy
// samples, using the job target as the business unit.
func (as *AccuracyService) TrackComparison(job *models.Job, ref, cand *models.CalculationResult, cmp *models.ComparisonResult) {
	metadata := map[string]interface{}{
		"job_id":        job.ID,
		"interval_type": job.IntervalType,
	}
	pairs := []struct {
		metricType string
		refValue   float64
		candValue  float64
	}{
		{"agents_required", ref.AgentsRequired, cand.AgentsRequired},
		{"service_level", ref.ServiceLevel, cand.ServiceLevel},
		{"occupancy", ref.Occupancy, cand.Occupancy},
		{"avg_wait_time", ref.AvgWaitTime, cand.AvgWaitTime},
		{"avg_handle_time", ref.AvgHandleTime, cand.AvgHandleTime},
	}
	for _, p := range pairs {
		if _, err := as.Track(job.Target, p.metricType, p.refValue, p.candValue, metadata); err != nil {
			logger.WithTracker(job.Target, p.metricType).Error("Failed to track comparison metric: " + err.Error())
		}
	}

	// Multi-skill coverage tracks the average coverage across skills.
	if refAvg, ok := avgCoverage(ref.SkillCoverage); ok {
		if candAvg, ok := avgCoverage(cand.SkillCoverage); ok {
			if _, err := as.Track(job.Target, "multi_skill_coverage", refAvg, candAvg, metadata); err != nil {
				logger.WithTracker(job.Target, "multi_skill_coverage").Error("Failed to track coverage: " + err.Error())
			}
		}
	}
}

func avgCoverage(coverage models.JSONB) (float64, bool) {
	if len(coverage) == 0 {
		return 0, false
	}
	total := 0.0
	count := 0
	for _, v := range coverage {
		if f, ok := toFloat(v); ok {
			total += f
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// HistoricalHandleTime is the candidate engine's history hook: the average
// reference handle time observed for the target in the trailing 30 days.
func (as *AccuracyService) HistoricalHandleTime(target string) (float64, bool) {
	var avg *float64
	err := as.db.Model(&models.CalculationResult{}).
		Select("AVG(avg_handle_time)").
		Joins("JOIN jobs ON jobs.id = calculation_results.job_id").
		Where("jobs.target = ? AND calculation_results.engine = ? AND calculation_results.created_at > ?",
			target, models.EngineReference, time.Now().Add(-historicalWindow)).
		Scan(&avg).Error
	if err != nil || avg == nil || *avg <= 0 {
		return 0, false
	}
	return *avg, true
}

// ListMetrics returns recent accuracy samples, newest first.
func (as *AccuracyService) ListMetrics(businessUnit, metricType string, since time.Time, limit int) ([]models.AccuracyMetric, error) {
	q := as.db.Order("measured_at DESC").Limit(limit)
	if businessUnit != "" {
		q = q.Where("business_unit = ?", businessUnit)
	}
	if metricType != "" {
		q = q.Where("metric_type = ?", metricType)
	}
	if !since.IsZero() {
		q = q.Where("measured_at >= ?", since)
	}
	var metrics []models.AccuracyMetric
	if err := q.Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}

// ListDeviationPatterns returns the running aggregates.
func (as *AccuracyService) ListDeviationPatterns() ([]models.DeviationPattern, error) {
	var patterns []models.DeviationPattern
	if err := as.db.Order("avg_deviation DESC").Find(&patterns).Error; err != nil {
		return nil, err
	}
	return patterns, nil
}

// RollingConfidence is the average confidence score per key over 30 days.
func (as *AccuracyService) RollingConfidence(businessUnit, metricType string) (float64, int64, error) {
	q := as.db.Model(&models.AccuracyMetric{}).
		Where("measured_at > ?", time.Now().Add(-historicalWindow))
	if businessUnit != "" {
		q = q.Where("business_unit = ?", businessUnit)
	}
	if metricType != "" {
		q = q.Where("metric_type = ?", metricType)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	var avg float64
	if err := q.Select("AVG(confidence_score)").Scan(&avg).Error; err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}
