package models

import (
	"time"
)

type EngineKind string

const (
	EngineReference EngineKind = "reference"
	EngineCandidate EngineKind = "candidate"
)

// CalculationResult is one engine's output for a job. Written exactly once
// per (job, engine) and never updated afterwards; the input snapshot is kept
// on the row so the run can be reproduced without the job.
type CalculationResult struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	JobID            uint       `json:"jobId" gorm:"not null;uniqueIndex:idx_results_job_engine"`
	Engine           EngineKind `json:"engine" gorm:"not null;uniqueIndex:idx_results_job_engine"`
	AlgorithmVersion string     `json:"algorithmVersion" gorm:"not null"`
	InputSnapshot    JSONB      `json:"inputSnapshot" gorm:"type:jsonb"`

	OfferedCalls   float64 `json:"offeredCalls"`
	HandledCalls   float64 `json:"handledCalls"`
	AbandonedCalls float64 `json:"abandonedCalls"`
	ServiceLevel   float64 `json:"serviceLevel"`   // percent answered within target
	AvgWaitTime    float64 `json:"avgWaitTime"`    // seconds
	AvgHandleTime  float64 `json:"avgHandleTime"`  // seconds
	AgentsRequired float64 `json:"agentsRequired"` // primary comparison metric
	Occupancy      float64 `json:"occupancy"`      // percent
	Utilization    float64 `json:"utilization"`    // percent

	SkillCoverage JSONB `json:"skillCoverage" gorm:"type:jsonb"` // skill -> coverage percent

	TrafficIntensity float64 `json:"trafficIntensity"` // erlangs
	WaitProbability  float64 `json:"waitProbability"`  // Erlang C P(wait>0)

	DurationMs int64 `json:"durationMs"`
	MemoryKB   int64 `json:"memoryKb"`
	Iterations int   `json:"iterations"`

	CreatedAt time.Time `json:"createdAt"`
}

func (CalculationResult) TableName() string {
	return "calculation_results"
}
