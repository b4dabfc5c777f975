package services

import (
	"fmt"
)

// ValidationError rejects malformed job input before queueing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Reason)
}

// ExecutionError wraps a calculator failure mid-run. The job is retried up
// to its max retry count and then marked failed with this detail.
type ExecutionError struct {
	Engine string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s engine execution failed: %v", e.Engine, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ComparisonError means a comparison could not run, typically because only
// one side's result exists. The job stays failed and the lone result is kept.
type ComparisonError struct {
	JobID  uint
	Reason string
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("comparison skipped for job %d: %s", e.JobID, e.Reason)
}

// DataQualityError is non-fatal: it lowers the confidence score and may feed
// a DATA_QUALITY failure pattern, but never blocks the pipeline.
type DataQualityError struct {
	IssueType string
	Detail    string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality issue (%s): %s", e.IssueType, e.Detail)
}
