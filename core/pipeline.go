package core

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/huangsam/shiptalkers/core/algo"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/logger"
	"github.com/huangsam/shiptalkers/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("shiptalkers/core")

// Notes attached to reports.
const (
	NoteLastYearCoverage = "Coding time only covers what the tracker has logged since it was adopted; messaging time covers the full year."
	NoteAllTimeWindowed  = "Messaging activity was limited to the last year because unbounded analytics queries are disabled."
)

// Pipeline sequences mode resolution, date ranges, both fetches, estimation
// and comparison. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	cfg        *contract.Config
	analytics  contract.AnalyticsClient
	codingTime contract.CodingTimeClient
	history    contract.HistoryManager
	limiter    *WorkspaceLimiter
	log        *logger.Logger
	now        func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithHistory records every run in the manager's history store.
func WithHistory(mgr contract.HistoryManager) PipelineOption {
	return func(p *Pipeline) {
		p.history = mgr
	}
}

// WithLimiter caps concurrent runs per workspace.
func WithLimiter(l *WorkspaceLimiter) PipelineOption {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// WithClock overrides the wall clock used to pick "today".
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithPipelineLogger sets the logger used for run logs.
func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// NewPipeline wires the two upstream clients with validated configuration.
func NewPipeline(cfg *contract.Config, analytics contract.AnalyticsClient, codingTime contract.CodingTimeClient, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		analytics:  analytics,
		codingTime: codingTime,
		log:        logger.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run produces a report for one request. Any stage failure stops the run and is
// returned as a *contract.StageError; later stages never see partial data.
func (p *Pipeline) Run(ctx context.Context, req schema.ReportRequest) (*schema.Report, error) {
	runUUID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("report.run_id", runUUID),
			attribute.String("report.username", req.Username),
		))
	defer span.End()

	log := p.log.WithFields(
		zap.String("run_id", runUUID),
		zap.String("username", req.Username),
		zap.String("source", requestSource(ctx)),
	)

	release, err := p.limiter.Acquire(ctx, p.cfg.Workspace)
	if err != nil {
		err = fmt.Errorf("waiting for a workspace slot: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer release()

	start := p.now()
	var mode schema.ReportingMode
	if err := p.stage(ctx, schema.StageResolveMode, func(context.Context) error {
		mode = ResolveMode(req.Trigger)
		if _, ok := schema.ValidReportingModes[mode]; !ok {
			return fmt.Errorf("unknown reporting mode %q", mode)
		}
		return nil
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Warn("Report run failed", failureFields(err)...)
		return nil, err
	}
	span.SetAttributes(attribute.String("report.mode", string(mode)))

	// --- Begin run tracking (if configured) ---
	store := p.historyStore()
	var runID int64
	if store != nil {
		configParams := map[string]any{
			"workspace":                p.cfg.Workspace,
			"source":                   requestSource(ctx),
			"lag_offset_days":          p.cfg.LagOffsetDays,
			"analytics_count":          p.cfg.AnalyticsCount,
			"allow_all_time_analytics": p.cfg.AllowAllTimeAnalytics,
			"weights":                  p.cfg.ComputedWeights,
		}
		runID, err = store.BeginRun(start, runUUID, req.Username, mode, configParams)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	report, err := p.run(ctx, req, mode, start, runUUID, log)

	// --- End run tracking ---
	if store != nil && runID > 0 {
		outcome := schema.RunOutcome{Kind: contract.FailureKind(err), FailedStage: contract.FailedStage(err)}
		if endErr := store.EndRun(runID, p.now(), outcome); endErr != nil {
			contract.LogWarn("Failed to finalize run tracking", endErr)
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Warn("Report run failed", failureFields(err)...)
		return nil, err
	}

	if flat, flatErr := schema.FlattenReport(*report); flatErr == nil {
		log.Debug("Report assembled", zap.Any("report", flat))
	}
	log.Info("Report run finished", zap.Duration("duration", p.now().Sub(start)))
	return report, nil
}

// run executes the stages in order. Stage errors are wrapped with their stage.
func (p *Pipeline) run(ctx context.Context, req schema.ReportRequest, mode schema.ReportingMode, start time.Time, runUUID string, log *logger.Logger) (*schema.Report, error) {
	var (
		codingRange    schema.DateRange
		analyticsRange schema.DateRange
		downgraded     bool
		member         schema.MemberActivity
		codingSeconds  float64
		estimate       schema.TimeEstimate
		comparison     schema.ComparisonResult
	)

	if err := p.stage(ctx, schema.StageDateRange, func(context.Context) error {
		today := civil.DateOf(start)
		codingRange = ComputeDateRange(mode, today, p.cfg.LagOffsetDays)
		analyticsRange, downgraded = AnalyticsDateRange(mode, today, p.cfg.LagOffsetDays, p.cfg.AllowAllTimeAnalytics)
		if downgraded {
			log.Warn("All-time analytics disabled; using the last-year window",
				zap.String("date_range", analyticsRange.String()))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, schema.StageFetchActivity, func(ctx context.Context) error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		var err error
		member, err = p.analytics.FetchMemberActivity(callCtx, req.Username, analyticsRange)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, schema.StageFetchCodingTime, func(ctx context.Context) error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		var err error
		codingSeconds, err = p.codingTime.FetchCodingTime(callCtx, member.UserID, mode, codingRange)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, schema.StageEstimate, func(context.Context) error {
		estimate = algo.Estimate(member, p.cfg.ComputedWeights)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, schema.StageCompare, func(context.Context) error {
		var err error
		comparison, err = algo.Compute(codingSeconds, estimate)
		return err
	}); err != nil {
		return nil, err
	}

	report := &schema.Report{
		RunID:  runUUID,
		UserID: member.UserID,
		Mode:   mode,
		Range:  analyticsRange,
		Card: schema.ReportCard{
			AvatarURL:        req.AvatarURL,
			DisplayName:      member.DisplayName,
			Username:         member.Username,
			ComparisonResult: comparison,
		},
	}
	if mode == schema.LastYearMode {
		report.Notes = append(report.Notes, NoteLastYearCoverage)
	}
	if downgraded {
		report.Notes = append(report.Notes, NoteAllTimeWindowed)
	}
	return report, nil
}

// stage runs fn inside a span and tags any failure with the stage name.
func (p *Pipeline) stage(ctx context.Context, stage schema.Stage, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "pipeline."+string(stage))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &contract.StageError{Stage: stage, Err: err}
	}
	return nil
}

// callContext bounds a single upstream call by the configured request timeout.
func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.RequestTimeout)
}

func (p *Pipeline) historyStore() contract.HistoryStore {
	if p.history == nil {
		return nil
	}
	return p.history.GetHistoryStore()
}
