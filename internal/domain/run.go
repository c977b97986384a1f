package domain

import "time"

// RunStatus is the outcome of one pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "success"
	RunFailed    RunStatus = "failed"
)

// Run is the audit record of one pipeline run.
type Run struct {
	ID         string
	StartedAt  time.Time
	CapturedOn time.Time
	SourceURL  string
	RowsParsed int
	RowsStored int
	Status     RunStatus
	Error      string
}
