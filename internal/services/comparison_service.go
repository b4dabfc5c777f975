package services

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

// significanceThresholdPct marks metrics whose percentage difference is
// worth an analyst's attention, independent of the agreement tolerance.
const significanceThresholdPct = 5.0

type ComparisonService struct {
	db           *gorm.DB
	tolerancePct float64
}

// NewComparisonService creates a comparator. The agreement tolerance on the
// primary metric (agents required) comes from AGREEMENT_TOLERANCE_PCT,
// default 5.
func NewComparisonService(db *gorm.DB) *ComparisonService {
	tolerance := 5.0
	if v := os.Getenv("AGREEMENT_TOLERANCE_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			tolerance = f
		}
	}
	return &ComparisonService{db: db, tolerancePct: tolerance}
}

// pctDiff follows the zero-handling convention: both zero is 0, a reference
// of zero against a non-zero candidate is a full 100, otherwise it is the
// absolute difference relative to the reference.
func pctDiff(reference, candidate float64) float64 {
	if reference == 0 && candidate == 0 {
		return 0
	}
	if reference == 0 {
		return 100
	}
	return math.Abs(reference-candidate) / math.Abs(reference) * 100
}

// signedDiff is candidate minus reference.
func signedDiff(reference, candidate float64) float64 {
	return candidate - reference
}

// Compare diffs the two engine results for a job and stores the comparison.
// Both results must exist; a lone survivor is a ComparisonError.
func (cs *ComparisonService) Compare(jobID uint, ref, cand *models.CalculationResult) (*models.ComparisonResult, error) {
	if ref == nil || cand == nil {
		return nil, &ComparisonError{JobID: jobID, Reason: "both engine results required"}
	}

	cmp := &models.ComparisonResult{
		JobID:             jobID,
		ReferenceResultID: ref.ID,
		CandidateResultID: cand.ID,

		AgentsDiff:          signedDiff(ref.AgentsRequired, cand.AgentsRequired),
		AgentsDiffPct:       pctDiff(ref.AgentsRequired, cand.AgentsRequired),
		ServiceLevelDiff:    signedDiff(ref.ServiceLevel, cand.ServiceLevel),
		ServiceLevelDiffPct: pctDiff(ref.ServiceLevel, cand.ServiceLevel),
		OccupancyDiff:       signedDiff(ref.Occupancy, cand.Occupancy),
		OccupancyDiffPct:    pctDiff(ref.Occupancy, cand.Occupancy),
		WaitTimeDiff:        signedDiff(ref.AvgWaitTime, cand.AvgWaitTime),
		WaitTimeDiffPct:     pctDiff(ref.AvgWaitTime, cand.AvgWaitTime),
		HandleTimeDiff:      signedDiff(ref.AvgHandleTime, cand.AvgHandleTime),
		HandleTimeDiffPct:   pctDiff(ref.AvgHandleTime, cand.AvgHandleTime),
	}

	cmp.SkillCoverageDiffs = toJSONB(compareSkillCoverage(ref.SkillCoverage, cand.SkillCoverage))

	pctByMetric := map[string]float64{
		"agents_required": cmp.AgentsDiffPct,
		"service_level":   cmp.ServiceLevelDiffPct,
		"occupancy":       cmp.OccupancyDiffPct,
		"avg_wait_time":   cmp.WaitTimeDiffPct,
		"avg_handle_time": cmp.HandleTimeDiffPct,
	}
	significant := models.JSONB{}
	for metric, pct := range pctByMetric {
		if pct > significanceThresholdPct {
			significant[metric] = pct
		}
	}
	cmp.SignificantMetrics = significant

	cmp.AlgorithmsAgree = cmp.AgentsDiffPct <= cs.tolerancePct
	cmp.Recommendation = recommendation(cmp.AlgorithmsAgree, cmp.AgentsDiffPct)

	if err := cs.db.Create(cmp).Error; err != nil {
		return nil, fmt.Errorf("failed to store comparison for job %d: %w", jobID, err)
	}

	logger.WithContext(map[string]interface{}{
		"job_id":    jobID,
		"component": "comparator",
		"agree":     cmp.AlgorithmsAgree,
	}).Info("Comparison stored")
	return cmp, nil
}

// recommendation maps the primary metric deviation to an operator hint.
func recommendation(agree bool, agentsPct float64) string {
	switch {
	case agree:
		return "trusted"
	case agentsPct <= 10:
		return "review parameters"
	default:
		return "manual review required"
	}
}

// compareSkillCoverage diffs coverage per skill key. A skill present on only
// one side counts as a full 100% gap.
func compareSkillCoverage(ref, cand models.JSONB) map[string]float64 {
	if len(ref) == 0 && len(cand) == 0 {
		return nil
	}
	diffs := make(map[string]float64)
	for skill, rv := range ref {
		r, rok := toFloat(rv)
		cv, exists := cand[skill]
		if !exists {
			diffs[skill] = 100
			continue
		}
		c, cok := toFloat(cv)
		if !rok || !cok {
			diffs[skill] = 100
			continue
		}
		diffs[skill] = pctDiff(r, c)
	}
	for skill := range cand {
		if _, exists := ref[skill]; !exists {
			diffs[skill] = 100
		}
	}
	return diffs
}

// GetByJob returns the stored comparison for a job.
func (cs *ComparisonService) GetByJob(jobID uint) (*models.ComparisonResult, error) {
	var cmp models.ComparisonResult
	if err := cs.db.Where("job_id = ?", jobID).First(&cmp).Error; err != nil {
		return nil, err
	}
	return &cmp, nil
}

func toJSONB(m map[string]float64) models.JSONB {
	if m == nil {
		return nil
	}
	out := models.JSONB{}
	for k, v := range m {
		out[k] = v
	}
	return out
}
