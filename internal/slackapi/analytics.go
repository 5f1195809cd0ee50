package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// rawStatus is decoded before the full envelope so an ok:false reply is
// reported as such even when its other fields have drifted.
type rawStatus struct {
	OK    *bool           `json:"ok"`
	Error json.RawMessage `json:"error"`
}

// rawEnvelope mirrors the analytics response with every field optional,
// so absent values are detected instead of decoding to zero.
type rawEnvelope struct {
	NumFound       *int64      `json:"num_found"`
	MemberActivity []rawMember `json:"member_activity"`
}

type rawMember struct {
	Username          *string `json:"username"`
	UserID            *string `json:"user_id"`
	DisplayName       *string `json:"display_name"`
	DateLastActive    *int64  `json:"date_last_active"`
	MessagesPosted    *int64  `json:"messages_posted"`
	ReactionsAdded    *int64  `json:"reactions_added"`
	DaysActive        *int64  `json:"days_active"`
	DaysActiveDesktop *int64  `json:"days_active_desktop"`
	DaysActiveAndroid *int64  `json:"days_active_android"`
	DaysActiveIOS     *int64  `json:"days_active_ios"`
	SlackHuddlesCount *int64  `json:"slack_huddles_count"`
}

// FetchMemberActivity queries member analytics for username over dateRange and
// returns the record whose username matches exactly. Upstream matching is fuzzy,
// so every returned record is scanned; position is never trusted.
func (c *Client) FetchMemberActivity(ctx context.Context, username string, dateRange schema.DateRange) (schema.MemberActivity, error) {
	ctx, span := tracer.Start(ctx, "slackapi.fetch_member_activity",
		trace.WithAttributes(
			attribute.String("slack.workspace", c.workspace),
			attribute.String("slack.date_range", dateRange.String()),
		))
	defer span.End()

	header := http.Header{}
	header.Set("Authority", c.workspace+".slack.com")

	body, err := c.postForm(ctx, serviceAnalytics, c.analyticsBaseURL+analyticsPath, c.analyticsForm(username, dateRange), header)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schema.MemberActivity{}, err
	}

	result, err := DecodeAnalyticsResult(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schema.MemberActivity{}, err
	}
	span.SetAttributes(attribute.Int64("slack.num_found", result.NumFound))

	if result.NumFound > 1 {
		c.log.Warn("Analytics query matched multiple members",
			zap.String("username", username),
			zap.Int64("num_found", result.NumFound))
	}

	member, err := FindExactMember(result.MemberActivity, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schema.MemberActivity{}, err
	}
	return member, nil
}

// analyticsForm builds the form body for one member query.
func (c *Client) analyticsForm(username string, dateRange schema.DateRange) url.Values {
	form := url.Values{}
	form.Set("token", c.token)
	if dateRange.IsRelative() {
		form.Set("date_range", dateRange.Token)
	} else {
		form.Set("start_date", dateRange.Start.String())
		form.Set("end_date", dateRange.End.String())
	}
	form.Set("count", strconv.Itoa(c.count))
	form.Set("sort_column", "username")
	form.Set("sort_direction", "asc")
	form.Set("query", username)
	return form
}

// DecodeAnalyticsResult validates an analytics response body. An ok:false
// envelope is an UpstreamError; any structural problem is a SchemaError.
func DecodeAnalyticsResult(body []byte) (schema.AnalyticsQueryResult, error) {
	var status rawStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return schema.AnalyticsQueryResult{}, schemaErrorFromJSON(serviceAnalytics, err)
	}
	if status.OK == nil {
		return schema.AnalyticsQueryResult{}, &contract.SchemaError{Service: serviceAnalytics, Field: "ok", Reason: "is missing"}
	}
	if !*status.OK {
		return schema.AnalyticsQueryResult{}, contract.NewUpstreamError(serviceAnalytics, http.StatusOK, nil, fmt.Errorf("ok=false: %s", status.reason()))
	}

	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return schema.AnalyticsQueryResult{}, schemaErrorFromJSON(serviceAnalytics, err)
	}

	if raw.NumFound == nil {
		return schema.AnalyticsQueryResult{}, &contract.SchemaError{Service: serviceAnalytics, Field: "num_found", Reason: "is missing"}
	}
	if *raw.NumFound < 1 {
		return schema.AnalyticsQueryResult{}, &contract.SchemaError{Service: serviceAnalytics, Field: "num_found", Reason: "must be at least 1"}
	}
	if len(raw.MemberActivity) == 0 {
		return schema.AnalyticsQueryResult{}, &contract.SchemaError{Service: serviceAnalytics, Field: "member_activity", Reason: "must not be empty"}
	}

	members := make([]schema.MemberActivity, 0, len(raw.MemberActivity))
	for i, m := range raw.MemberActivity {
		member, err := m.validate(fmt.Sprintf("member_activity[%d]", i))
		if err != nil {
			return schema.AnalyticsQueryResult{}, err
		}
		members = append(members, member)
	}

	return schema.AnalyticsQueryResult{
		OK:             true,
		NumFound:       *raw.NumFound,
		MemberActivity: members,
	}, nil
}

// reason returns the upstream error code, tolerating a non-string value.
func (s rawStatus) reason() string {
	var code string
	if err := json.Unmarshal(s.Error, &code); err == nil && code != "" {
		return code
	}
	if len(s.Error) > 0 && string(s.Error) != "null" {
		return string(s.Error)
	}
	return "unknown error"
}

// validate converts a raw record, rejecting missing or negative fields.
func (m rawMember) validate(path string) (schema.MemberActivity, error) {
	strs := []struct {
		name string
		v    *string
	}{
		{"username", m.Username},
		{"user_id", m.UserID},
		{"display_name", m.DisplayName},
	}
	for _, s := range strs {
		if s.v == nil {
			return schema.MemberActivity{}, &contract.SchemaError{Service: serviceAnalytics, Field: path + "." + s.name, Reason: "is missing"}
		}
	}

	nums := []struct {
		name string
		v    *int64
	}{
		{"date_last_active", m.DateLastActive},
		{"messages_posted", m.MessagesPosted},
		{"reactions_added", m.ReactionsAdded},
		{"days_active", m.DaysActive},
		{"days_active_desktop", m.DaysActiveDesktop},
		{"days_active_android", m.DaysActiveAndroid},
		{"days_active_ios", m.DaysActiveIOS},
	}
	for _, n := range nums {
		if n.v == nil {
			return schema.MemberActivity{}, &contract.SchemaError{Service: serviceAnalytics, Field: path + "." + n.name, Reason: "is missing"}
		}
		if *n.v < 0 {
			return schema.MemberActivity{}, &contract.SchemaError{Service: serviceAnalytics, Field: path + "." + n.name, Reason: "must not be negative"}
		}
	}
	if m.SlackHuddlesCount != nil && *m.SlackHuddlesCount < 0 {
		return schema.MemberActivity{}, &contract.SchemaError{Service: serviceAnalytics, Field: path + ".slack_huddles_count", Reason: "must not be negative"}
	}

	return schema.MemberActivity{
		Username:          *m.Username,
		UserID:            *m.UserID,
		DisplayName:       *m.DisplayName,
		DateLastActive:    *m.DateLastActive,
		MessagesPosted:    *m.MessagesPosted,
		ReactionsAdded:    *m.ReactionsAdded,
		DaysActive:        *m.DaysActive,
		DaysActiveDesktop: *m.DaysActiveDesktop,
		DaysActiveAndroid: *m.DaysActiveAndroid,
		DaysActiveIOS:     *m.DaysActiveIOS,
		SlackHuddlesCount: m.SlackHuddlesCount,
	}, nil
}

// FindExactMember returns the record whose username equals username exactly.
func FindExactMember(members []schema.MemberActivity, username string) (schema.MemberActivity, error) {
	candidates := make([]string, 0, len(members))
	for _, m := range members {
		if m.Username == username {
			return m, nil
		}
		candidates = append(candidates, m.Username)
	}
	return schema.MemberActivity{}, &contract.NotFoundError{Username: username, Candidates: candidates}
}

// schemaErrorFromJSON turns a decode failure into a SchemaError naming the field when possible.
func schemaErrorFromJSON(service string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &contract.SchemaError{Service: service, Field: typeErr.Field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
	}
	return &contract.SchemaError{Service: service, Reason: fmt.Sprintf("body is not valid JSON: %v", err)}
}
