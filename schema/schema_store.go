package schema

import "time"

// RunOutcome summarizes how a pipeline run ended.
type RunOutcome struct {
	Kind        string // "ok" or a failure kind such as "upstream"
	FailedStage Stage  // empty when the run succeeded
}

// RunRecord represents a row from the shiptalkers_report_runs table.
// It only holds run metadata; comparison numbers are never persisted.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Username      string
	Mode          string
	Outcome       *string
	FailedStage   *string
	ConfigParams  *string
}
