// Package core has core logic for mode resolution, date ranges and the report pipeline.
package core

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/outwriter"
	"github.com/huangsam/shiptalkers/internal/slackapi"
	"github.com/huangsam/shiptalkers/internal/wakatime"
	"github.com/huangsam/shiptalkers/schema"
	"go.uber.org/zap"
)

// Service runs the pipeline and resolves the avatar afterwards.
// It is shared by the CLI, the MCP server and the HTTP server.
type Service struct {
	cfg      *contract.Config
	pipeline *Pipeline
	profile  contract.ProfileClient // nil disables avatar lookup
}

var _ contract.ReportService = &Service{} // Compile-time check

// NewService creates a Service from its collaborators.
func NewService(cfg *contract.Config, pipeline *Pipeline, profile contract.ProfileClient) *Service {
	return &Service{cfg: cfg, pipeline: pipeline, profile: profile}
}

// NewServiceFromConfig wires the production clients, history and limiter.
func NewServiceFromConfig(cfg *contract.Config, mgr contract.HistoryManager) *Service {
	slack := slackapi.NewClientFromConfig(cfg)
	pipeline := NewPipeline(cfg, slack, wakatime.NewClientFromConfig(cfg),
		WithHistory(mgr),
		WithLimiter(NewWorkspaceLimiter(cfg.WorkspaceConcurrency)),
	)
	var profile contract.ProfileClient
	if cfg.LookupAvatar {
		profile = slack
	}
	return NewService(cfg, pipeline, profile)
}

// Report runs one request end to end. The avatar comes from the request,
// then the profile lookup, then the configured default.
func (s *Service) Report(ctx context.Context, req schema.ReportRequest) (*schema.Report, error) {
	if !shouldSuppressHeader(ctx) {
		mode := ResolveMode(req.Trigger)
		today := civil.DateOf(time.Now())
		dateRange, _ := AnalyticsDateRange(mode, today, s.cfg.LagOffsetDays, s.cfg.AllowAllTimeAnalytics)
		outwriter.LogReportHeader(s.cfg.Workspace, req.Username, mode, dateRange)
	}

	report, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if report.Card.AvatarURL == "" {
		report.Card.AvatarURL = s.resolveAvatar(ctx, report.UserID)
	}
	return report, nil
}

// resolveAvatar never fails; any lookup error falls back to the default avatar.
func (s *Service) resolveAvatar(ctx context.Context, userID string) string {
	if s.profile == nil || userID == "" {
		return s.cfg.DefaultAvatarURL
	}
	avatar, err := s.profile.GetAvatarURL(ctx, userID)
	if err != nil {
		contract.LogWarn("Avatar lookup failed; using default avatar", err)
		return s.cfg.DefaultAvatarURL
	}
	return avatar
}

// ExecuteReport runs a report for the CLI and prints it in the configured format.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager, req schema.ReportRequest) error {
	return executeReportWith(ctx, cfg, NewServiceFromConfig(cfg, mgr), req)
}

func executeReportWith(ctx context.Context, cfg *contract.Config, svc contract.ReportService, req schema.ReportRequest) error {
	start := time.Now()
	report, err := svc.Report(WithRequestSource(ctx, SourceCLI), req)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteReport(report, cfg, time.Since(start))
}

// ExecuteWeights prints the active weight table and the estimator formula.
func ExecuteWeights(_ context.Context, cfg *contract.Config) error {
	return outwriter.NewOutWriter().WriteWeights(cfg)
}

// failureFields exposes an error's classification for structured logs.
func failureFields(err error) []zap.Field {
	return []zap.Field{
		zap.String("failure_kind", contract.FailureKind(err)),
		zap.String("failed_stage", string(contract.FailedStage(err))),
	}
}
