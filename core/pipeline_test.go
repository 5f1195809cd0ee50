package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/logger"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func testConfig() *contract.Config {
	return &contract.Config{
		Workspace:             "hackclub",
		LagOffsetDays:         3,
		AllowAllTimeAnalytics: true,
		RequestTimeout:        time.Second,
		ComputedWeights:       schema.GetDefaultWeights(),
		DefaultAvatarURL:      contract.DefaultAvatarURL,
	}
}

func canonicalMember() schema.MemberActivity {
	return schema.MemberActivity{
		Username:          "orpheus",
		UserID:            "U2",
		DisplayName:       "Orpheus",
		MessagesPosted:    100,
		ReactionsAdded:    50,
		DaysActive:        12,
		DaysActiveDesktop: 10,
		DaysActiveAndroid: 5,
	}
}

func newTestPipeline(cfg *contract.Config, analytics contract.AnalyticsClient, coding contract.CodingTimeClient, opts ...PipelineOption) (*Pipeline, *bytes.Buffer) {
	var logs bytes.Buffer
	base := []PipelineOption{
		WithClock(func() time.Time { return fixedNow }),
		WithPipelineLogger(logger.NewWithWriter("json", "debug", &logs)),
	}
	return NewPipeline(cfg, analytics, coding, append(base, opts...)...), &logs
}

func TestPipelineRunLast30Days(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", schema.DateRange{Token: "30d"}).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", schema.Last30DaysMode, schema.DateRange{Token: "30d"}).Return(35600.0, nil)

	p, logs := newTestPipeline(testConfig(), analytics, coding)
	report, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus", Trigger: "how much?", AvatarURL: "https://a.example/x.png"})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "U2", report.UserID)
	assert.Equal(t, schema.Last30DaysMode, report.Mode)
	assert.Empty(t, report.Notes)
	assert.Equal(t, schema.ReportCard{
		AvatarURL:   "https://a.example/x.png",
		DisplayName: "Orpheus",
		Username:    "orpheus",
		ComparisonResult: schema.ComparisonResult{
			CodingTimeSeconds:            35600,
			MessagingTimeEstimateSeconds: 35600,
			PercentageDifference:         0,
		},
	}, report.Card)
	assert.Contains(t, logs.String(), `"card.username":"orpheus"`)

	analytics.AssertExpectations(t)
	coding.AssertExpectations(t)
}

func TestPipelineRunLastYear(t *testing.T) {
	expectedRange := ComputeDateRange(schema.LastYearMode, date(2025, time.March, 10), 3)
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", expectedRange).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", schema.LastYearMode, expectedRange).Return(71200.0, nil)

	p, _ := newTestPipeline(testConfig(), analytics, coding)
	report, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus", Trigger: "One Year"})
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", report.Range.Start.String())
	assert.Equal(t, "2025-02-28", report.Range.End.String())
	assert.Equal(t, int64(-50), report.Card.PercentageDifference)
	assert.Equal(t, []string{NoteLastYearCoverage}, report.Notes)
}

func TestPipelineRunAllTimeDowngraded(t *testing.T) {
	cfg := testConfig()
	cfg.AllowAllTimeAnalytics = false
	lastYear := ComputeDateRange(schema.LastYearMode, date(2025, time.March, 10), 3)

	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", lastYear).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", schema.AllTimeMode, schema.DateRange{Token: "all"}).Return(17800.0, nil)

	p, logs := newTestPipeline(cfg, analytics, coding)
	report, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus", Trigger: "all time"})
	require.NoError(t, err)

	assert.Equal(t, schema.AllTimeMode, report.Mode)
	assert.Equal(t, lastYear, report.Range)
	assert.Equal(t, int64(100), report.Card.PercentageDifference)
	assert.Equal(t, []string{NoteAllTimeWindowed}, report.Notes)
	assert.Contains(t, logs.String(), "All-time analytics disabled")
	analytics.AssertExpectations(t)
	coding.AssertExpectations(t)
}

func TestPipelineActivityFailureShortCircuits(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "ghost", mock.Anything).
		Return(schema.MemberActivity{}, &contract.NotFoundError{Username: "ghost", Candidates: []string{"ghost2"}})

	p, _ := newTestPipeline(testConfig(), analytics, coding)
	report, err := p.Run(context.Background(), schema.ReportRequest{Username: "ghost"})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, schema.StageFetchActivity, contract.FailedStage(err))
	assert.Equal(t, contract.KindNotFound, contract.FailureKind(err))
	assert.Contains(t, err.Error(), "fetch_activity")
	coding.AssertNotCalled(t, "FetchCodingTime", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineStageFailures(t *testing.T) {
	tests := []struct {
		name      string
		codingErr error
		coding    float64
		wantStage schema.Stage
		wantKind  string
		wantMsg   string
	}{
		{
			name:      "coding time forbidden",
			codingErr: contract.NewUpstreamError("coding-time", 403, []byte("no"), errors.New("unexpected status")),
			wantStage: schema.StageFetchCodingTime,
			wantKind:  contract.KindUpstream,
			wantMsg:   MsgCodingTimeFailed,
		},
		{
			name:      "zero coding time",
			coding:    0,
			wantStage: schema.StageCompare,
			wantKind:  contract.KindDivisionByZero,
			wantMsg:   MsgNoCodingTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analytics := &contract.MockAnalyticsClient{}
			coding := &contract.MockCodingTimeClient{}
			analytics.On("FetchMemberActivity", mock.Anything, "orpheus", mock.Anything).Return(canonicalMember(), nil)
			coding.On("FetchCodingTime", mock.Anything, "U2", mock.Anything, mock.Anything).Return(tt.coding, tt.codingErr)

			p, _ := newTestPipeline(testConfig(), analytics, coding)
			_, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus"})

			require.Error(t, err)
			assert.Equal(t, tt.wantStage, contract.FailedStage(err))
			assert.Equal(t, tt.wantKind, contract.FailureKind(err))
			assert.Equal(t, tt.wantMsg, UserMessage(err))
		})
	}
}

func TestPipelineStageWrapsError(t *testing.T) {
	p, _ := newTestPipeline(testConfig(), &contract.MockAnalyticsClient{}, &contract.MockCodingTimeClient{})

	err := p.stage(context.Background(), schema.StageResolveMode, func(context.Context) error {
		return errors.New("bad trigger")
	})
	var stageErr *contract.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, schema.StageResolveMode, stageErr.Stage)
	assert.ErrorContains(t, err, "bad trigger")

	assert.NoError(t, p.stage(context.Background(), schema.StageResolveMode, func(context.Context) error { return nil }))
}

func TestPipelineFailureIsLogged(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "nobody", mock.Anything).
		Return(schema.MemberActivity{}, &contract.NotFoundError{Username: "nobody"})

	p, logs := newTestPipeline(testConfig(), analytics, &contract.MockCodingTimeClient{})
	_, err := p.Run(context.Background(), schema.ReportRequest{Username: "nobody"})
	require.Error(t, err)

	assert.Contains(t, logs.String(), `"msg":"Report run failed"`)
	assert.Contains(t, logs.String(), `"failure_kind":"not_found"`)
	assert.Contains(t, logs.String(), `"failed_stage":"fetch_activity"`)
	assert.Contains(t, logs.String(), `"error":`)
}

func TestPipelineRecordsHistory(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", mock.Anything).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", mock.Anything, mock.Anything).Return(0.0, nil)

	store := &contract.MockHistoryStore{}
	store.On("BeginRun", fixedNow, mock.AnythingOfType("string"), "orpheus", schema.Last30DaysMode, mock.Anything).Return(int64(7), nil)
	store.On("EndRun", int64(7), fixedNow, schema.RunOutcome{Kind: contract.KindDivisionByZero, FailedStage: schema.StageCompare}).Return(nil)
	mgr := &contract.MockHistoryManager{}
	mgr.On("GetHistoryStore").Return(store)

	p, _ := newTestPipeline(testConfig(), analytics, coding, WithHistory(mgr))
	_, err := p.Run(WithRequestSource(context.Background(), SourceHTTP), schema.ReportRequest{Username: "orpheus"})
	require.Error(t, err)

	store.AssertExpectations(t)
	params := store.Calls[0].Arguments.Get(4).(map[string]any)
	assert.Equal(t, SourceHTTP, params["source"])
	assert.Equal(t, "hackclub", params["workspace"])
	assert.NotContains(t, params, "percentage_difference")
}

func TestPipelineHistoryFailureDoesNotFailRun(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", mock.Anything).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", mock.Anything, mock.Anything).Return(35600.0, nil)

	store := &contract.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
	mgr := &contract.MockHistoryManager{}
	mgr.On("GetHistoryStore").Return(store)

	p, _ := newTestPipeline(testConfig(), analytics, coding, WithHistory(mgr))
	_, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus"})
	require.NoError(t, err)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineNoHistoryStore(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", mock.Anything).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", mock.Anything, mock.Anything).Return(35600.0, nil)

	mgr := &contract.MockHistoryManager{}
	mgr.On("GetHistoryStore").Return(nil)

	p, _ := newTestPipeline(testConfig(), analytics, coding, WithHistory(mgr))
	_, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus"})
	require.NoError(t, err)
}

func TestPipelineWaitsForWorkspaceSlot(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	limiter := NewWorkspaceLimiter(1)
	release, err := limiter.Acquire(context.Background(), "hackclub")
	require.NoError(t, err)
	defer release()

	p, _ := newTestPipeline(testConfig(), analytics, coding, WithLimiter(limiter))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Run(ctx, schema.ReportRequest{Username: "orpheus"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	analytics.AssertNotCalled(t, "FetchMemberActivity", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineRenderingRoundTrip(t *testing.T) {
	analytics := &contract.MockAnalyticsClient{}
	coding := &contract.MockCodingTimeClient{}
	analytics.On("FetchMemberActivity", mock.Anything, "orpheus", mock.Anything).Return(canonicalMember(), nil)
	coding.On("FetchCodingTime", mock.Anything, "U2", mock.Anything, mock.Anything).Return(10000.0, nil)

	p, _ := newTestPipeline(testConfig(), analytics, coding)
	report, err := p.Run(context.Background(), schema.ReportRequest{Username: "orpheus"})
	require.NoError(t, err)

	// The card handed to rendering carries the comparison unchanged.
	enriched := schema.EnrichReportCard(report.Card)
	assert.Equal(t, report.Card.ComparisonResult, enriched.ComparisonResult)
	assert.Equal(t, int64(256), enriched.PercentageDifference)
}
