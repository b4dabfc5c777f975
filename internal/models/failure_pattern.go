package models

import (
	"time"
)

type PatternSeverity string

const (
	SeverityLow      PatternSeverity = "LOW"
	SeverityMedium   PatternSeverity = "MEDIUM"
	SeverityHigh     PatternSeverity = "HIGH"
	SeverityCritical PatternSeverity = "CRITICAL"
)

type PatternCategory string

const (
	CategoryAccuracy    PatternCategory = "ACCURACY"
	CategoryDataQuality PatternCategory = "DATA_QUALITY"
	CategoryPerformance PatternCategory = "PERFORMANCE"
)

type ResolutionStatus string

const (
	ResolutionOpen     ResolutionStatus = "OPEN"
	ResolutionResolved ResolutionStatus = "RESOLVED"
)

// FailurePattern is a recurring problem detected by the periodic miner.
// Deduplicated on (pattern type, category, affected metrics); re-detection
// increments the occurrence count and refreshes last occurrence.
type FailurePattern struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	PatternType     string          `json:"patternType" gorm:"not null;uniqueIndex:idx_failure_key"`
	Category        PatternCategory `json:"category" gorm:"not null;uniqueIndex:idx_failure_key"`
	AffectedMetrics string          `json:"affectedMetrics" gorm:"not null;uniqueIndex:idx_failure_key"`
	RootCause       string          `json:"rootCause" gorm:"type:text"`
	Severity        PatternSeverity `json:"severity" gorm:"not null"`
	OccurrenceCount int             `json:"occurrenceCount" gorm:"default:1"`

	ResolutionStatus ResolutionStatus `json:"resolutionStatus" gorm:"not null;default:'OPEN'"`
	ResolvedAt       *time.Time       `json:"resolvedAt"`
	LastOccurrence   time.Time        `json:"lastOccurrence"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FailurePattern) TableName() string {
	return "failure_patterns"
}
