package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/huangsam/shiptalkers/core"
	"github.com/huangsam/shiptalkers/core/algo"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svc     contract.ReportService
}

// reportResult is the report with the presentation fields filled in.
type reportResult struct {
	*schema.Report
	Card schema.EnrichedReportCard `json:"card"`
}

// modeResult describes how a trigger phrase was interpreted.
type modeResult struct {
	Mode            schema.ReportingMode `json:"mode"`
	Label           string               `json:"label"`
	CodingTimeRange string               `json:"coding_time_range"`
	AnalyticsRange  schema.DateRange     `json:"analytics_range"`
	Downgraded      bool                 `json:"all_time_windowed,omitempty"`
}

// estimateResult is the estimate with its per-weight breakdown.
type estimateResult struct {
	EstimatedSeconds int64                        `json:"estimated_seconds"`
	Human            string                       `json:"human"`
	Breakdown        map[schema.WeightKey]float64 `json:"breakdown_seconds"`
}

func (h *toolHandler) handleGetMessagingReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username := request.GetString("username", "")
	if username == "" {
		return mcp.NewToolResultError("username is required"), nil
	}

	ctx = core.WithRequestSource(core.WithSuppressHeader(ctx), core.SourceMCP)
	report, err := h.svc.Report(ctx, schema.ReportRequest{
		Username:  username,
		Trigger:   request.GetString("trigger", ""),
		AvatarURL: request.GetString("avatar_url", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(core.UserMessage(err)), nil
	}

	jsonData, _ := json.MarshalIndent(reportResult{
		Report: report,
		Card:   schema.EnrichReportCard(report.Card),
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleResolveMode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trigger := request.GetString("trigger", "")
	mode := core.ResolveMode(trigger)

	dateRange, downgraded := core.AnalyticsDateRange(mode, civil.DateOf(time.Now()), h.baseCfg.LagOffsetDays, h.baseCfg.AllowAllTimeAnalytics)

	jsonData, _ := json.MarshalIndent(modeResult{
		Mode:            mode,
		Label:           mode.Label(),
		CodingTimeRange: mode.CodingTimeRange(),
		AnalyticsRange:  dateRange,
		Downgraded:      downgraded,
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleEstimateTime(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	counters := map[string]int64{}
	for _, key := range []string{"messages_posted", "reactions_added", "days_active_desktop", "days_active_android", "days_active_ios"} {
		v, err := counterArg(args, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		counters[key] = v
	}

	activity := schema.MemberActivity{
		MessagesPosted:    counters["messages_posted"],
		ReactionsAdded:    counters["reactions_added"],
		DaysActiveDesktop: counters["days_active_desktop"],
		DaysActiveAndroid: counters["days_active_android"],
		DaysActiveIOS:     counters["days_active_ios"],
	}
	estimate := algo.Estimate(activity, h.baseCfg.ComputedWeights)

	jsonData, _ := json.MarshalIndent(estimateResult{
		EstimatedSeconds: estimate.EstimatedSeconds,
		Human:            schema.FormatDuration(float64(estimate.EstimatedSeconds)),
		Breakdown:        algo.EstimateBreakdown(activity, h.baseCfg.ComputedWeights),
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// counterArg reads an optional activity counter. Missing means zero; anything
// fractional, non-numeric or negative is rejected rather than truncated.
func counterArg(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, nil
	}

	var v int64
	switch n := raw.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		v = int64(n)
	case int:
		v = int64(n)
	case int64:
		v = n
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		v = parsed
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		v = parsed
	default:
		return 0, fmt.Errorf("%s must be a whole number", key)
	}

	if v < 0 {
		return 0, fmt.Errorf("%s must be non-negative", key)
	}
	return v, nil
}
