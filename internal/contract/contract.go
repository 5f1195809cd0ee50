// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/shiptalkers/schema"
)

// AnalyticsClient fetches member activity from the workspace analytics endpoint.
// This allows the pipeline to be tested without a live workspace.
type AnalyticsClient interface {
	// FetchMemberActivity returns the record whose username exactly matches the query.
	FetchMemberActivity(ctx context.Context, username string, dateRange schema.DateRange) (schema.MemberActivity, error)
}

// CodingTimeClient fetches coding-time totals from the time-tracking service.
type CodingTimeClient interface {
	// FetchCodingTime returns total coding seconds for the upstream user identifier.
	FetchCodingTime(ctx context.Context, userID string, mode schema.ReportingMode, dateRange schema.DateRange) (float64, error)
}

// ProfileClient resolves profile details that the analytics record does not carry.
type ProfileClient interface {
	// GetAvatarURL returns the original-size avatar for a workspace user ID.
	GetAvatarURL(ctx context.Context, userID string) (string, error)
}

// HistoryManager defines the interface for managing the run-history store.
// This allows the persistence layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for tracking pipeline runs.
type HistoryStore interface {
	// BeginRun creates a new run record and returns its unique ID
	BeginRun(startTime time.Time, runUUID, username string, mode schema.ReportingMode, configParams map[string]any) (int64, error)

	// EndRun updates the run record with completion data
	EndRun(runID int64, endTime time.Time, outcome schema.RunOutcome) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// Close closes the underlying connection
	Close() error
}

// ReportService runs the full report flow for long-lived callers (MCP, HTTP).
type ReportService interface {
	// Report runs the pipeline for one request and fills in the avatar.
	Report(ctx context.Context, req schema.ReportRequest) (*schema.Report, error)
}
