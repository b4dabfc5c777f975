package models

import (
	"time"
)

// PerformanceSample records one engine execution's timing and resource use.
// Append-only; the failure miner compares recent samples against the
// trailing 7-day average to flag degradation.
type PerformanceSample struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	JobID         uint       `json:"jobId" gorm:"index"`
	OperationType string     `json:"operationType" gorm:"not null;index"` // e.g. "erlang_c_sizing"
	Engine        EngineKind `json:"engine" gorm:"not null"`
	DurationMs    int64      `json:"durationMs"`
	MemoryKB      int64      `json:"memoryKb"`
	Iterations    int        `json:"iterations"`
	Converged     bool       `json:"converged"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"index"`
}

func (PerformanceSample) TableName() string {
	return "performance_samples"
}
