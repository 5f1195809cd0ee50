// Package schema has models and constants for all parts of shiptalkers.
package schema

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// DateRange is either a relative range token or an explicit pair of calendar dates.
type DateRange struct {
	Token string     `json:"token,omitempty"`     // "30d" or "all" when relative
	Start civil.Date `json:"start_date,omitzero"` // inclusive, explicit ranges only
	End   civil.Date `json:"end_date,omitzero"`   // inclusive, explicit ranges only
}

// IsRelative reports whether the range is expressed as a token.
func (r DateRange) IsRelative() bool {
	return r.Token != ""
}

// String renders the range for logs and headers.
func (r DateRange) String() string {
	if r.IsRelative() {
		return r.Token
	}
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

// MemberActivity is one upstream analytics record for a workspace member.
// Numeric fields are guaranteed non-negative once decoded by the fetcher.
type MemberActivity struct {
	Username          string `json:"username"`
	UserID            string `json:"user_id"`
	DisplayName       string `json:"display_name"`
	DateLastActive    int64  `json:"date_last_active"` // unix seconds
	MessagesPosted    int64  `json:"messages_posted"`
	ReactionsAdded    int64  `json:"reactions_added"`
	DaysActive        int64  `json:"days_active"`
	DaysActiveDesktop int64  `json:"days_active_desktop"`
	DaysActiveAndroid int64  `json:"days_active_android"`
	DaysActiveIOS     int64  `json:"days_active_ios"`
	SlackHuddlesCount *int64 `json:"slack_huddles_count,omitempty"` // absent on non-Enterprise plans
}

// AnalyticsQueryResult is the validated envelope returned by the analytics endpoint.
type AnalyticsQueryResult struct {
	OK             bool             `json:"ok"`
	NumFound       int64            `json:"num_found"`
	MemberActivity []MemberActivity `json:"member_activity"`
}

// TimeEstimate is the messaging time derived from one MemberActivity.
type TimeEstimate struct {
	EstimatedSeconds int64 `json:"estimated_seconds"`
}

// ComparisonResult is the final metric pairing handed to rendering.
type ComparisonResult struct {
	CodingTimeSeconds            float64 `json:"coding_time_seconds"`
	MessagingTimeEstimateSeconds int64   `json:"messaging_time_estimate_seconds"`
	PercentageDifference         int64   `json:"percentage_difference"`
}

// ReportCard is the flat structure consumed by the rendering collaborator.
// The embedded ComparisonResult keeps its field names and types unchanged.
type ReportCard struct {
	AvatarURL   string `json:"avatar_url"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	ComparisonResult
}

// Report is what a pipeline run returns: the card plus the context it was computed in.
type Report struct {
	RunID  string        `json:"run_id"`
	UserID string        `json:"user_id"`
	Mode   ReportingMode `json:"mode"`
	Range  DateRange     `json:"date_range"`
	Card   ReportCard    `json:"card"`
	Notes  []string      `json:"notes,omitempty"`
}

// ReportRequest describes one pipeline invocation.
type ReportRequest struct {
	Username  string // exact workspace username to report on
	Trigger   string // free-form text used to pick the reporting mode
	AvatarURL string // optional, supplied by the caller
}
