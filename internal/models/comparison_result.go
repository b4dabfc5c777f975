package models

import (
	"time"
)

// ComparisonResult is the diff of the two engine results for a job.
// Created exactly once per job, immutable, and read directly by downstream
// reporting, so field names here are part of the external contract.
type ComparisonResult struct {
	ID                uint `json:"id" gorm:"primaryKey"`
	JobID             uint `json:"jobId" gorm:"not null;uniqueIndex"`
	ReferenceResultID uint `json:"referenceResultId" gorm:"not null"`
	CandidateResultID uint `json:"candidateResultId" gorm:"not null"`

	AgentsDiff          float64 `json:"agentsDiff"`
	AgentsDiffPct       float64 `json:"agentsDiffPct"`
	ServiceLevelDiff    float64 `json:"serviceLevelDiff"` // signed: candidate - reference
	ServiceLevelDiffPct float64 `json:"serviceLevelDiffPct"`
	OccupancyDiff       float64 `json:"occupancyDiff"`
	OccupancyDiffPct    float64 `json:"occupancyDiffPct"`
	WaitTimeDiff        float64 `json:"waitTimeDiff"`
	WaitTimeDiffPct     float64 `json:"waitTimeDiffPct"`
	HandleTimeDiff      float64 `json:"handleTimeDiff"`
	HandleTimeDiffPct   float64 `json:"handleTimeDiffPct"`

	SkillCoverageDiffs JSONB `json:"skillCoverageDiffs" gorm:"type:jsonb"` // skill -> pct gap

	AlgorithmsAgree    bool   `json:"algorithmsAgree"`
	SignificantMetrics JSONB  `json:"significantMetrics" gorm:"type:jsonb"` // metric -> pct diff over threshold
	Recommendation     string `json:"recommendation" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
}

func (ComparisonResult) TableName() string {
	return "comparison_results"
}
