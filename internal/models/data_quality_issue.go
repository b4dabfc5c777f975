package models

import (
	"time"
)

// DataQualityIssue is a non-fatal input problem logged by the tracker or by
// callers. Issues lower confidence scores and, when one type recurs often
// enough, the miner rolls them into a DATA_QUALITY failure pattern.
type DataQualityIssue struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	IssueType    string    `json:"issueType" gorm:"not null;index"` // e.g. "missing_field", "mixed_types"
	BusinessUnit string    `json:"businessUnit" gorm:"index"`
	Detail       string    `json:"detail" gorm:"type:text"`
	Severity     string    `json:"severity" gorm:"default:'low'"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
}

func (DataQualityIssue) TableName() string {
	return "data_quality_issues"
}
