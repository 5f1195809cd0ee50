package contract

import (
	"context"
	"time"

	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/mock"
)

// MockAnalyticsClient is a mock implementation of AnalyticsClient for testing.
type MockAnalyticsClient struct {
	mock.Mock
}

var _ AnalyticsClient = &MockAnalyticsClient{} // Compile-time check

// FetchMemberActivity implements the AnalyticsClient interface.
func (m *MockAnalyticsClient) FetchMemberActivity(ctx context.Context, username string, dateRange schema.DateRange) (schema.MemberActivity, error) {
	args := m.Called(ctx, username, dateRange)
	return args.Get(0).(schema.MemberActivity), args.Error(1)
}

// MockCodingTimeClient is a mock implementation of CodingTimeClient for testing.
type MockCodingTimeClient struct {
	mock.Mock
}

var _ CodingTimeClient = &MockCodingTimeClient{} // Compile-time check

// FetchCodingTime implements the CodingTimeClient interface.
func (m *MockCodingTimeClient) FetchCodingTime(ctx context.Context, userID string, mode schema.ReportingMode, dateRange schema.DateRange) (float64, error) {
	args := m.Called(ctx, userID, mode, dateRange)
	return args.Get(0).(float64), args.Error(1)
}

// MockProfileClient is a mock implementation of ProfileClient for testing.
type MockProfileClient struct {
	mock.Mock
}

var _ ProfileClient = &MockProfileClient{} // Compile-time check

// GetAvatarURL implements the ProfileClient interface.
func (m *MockProfileClient) GetAvatarURL(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockHistoryManager is a mock implementation of HistoryManager for testing.
type MockHistoryManager struct {
	mock.Mock
}

var _ HistoryManager = &MockHistoryManager{} // Compile-time check

// GetHistoryStore implements the HistoryManager interface.
func (m *MockHistoryManager) GetHistoryStore() HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(HistoryStore)
	return store
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(startTime time.Time, runUUID, username string, mode schema.ReportingMode, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, runUUID, username, mode, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, outcome schema.RunOutcome) error {
	args := m.Called(runID, endTime, outcome)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockReportService is a mock implementation of ReportService for testing.
type MockReportService struct {
	mock.Mock
}

var _ ReportService = &MockReportService{} // Compile-time check

// Report implements the ReportService interface.
func (m *MockReportService) Report(ctx context.Context, req schema.ReportRequest) (*schema.Report, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*schema.Report)
	return report, args.Error(1)
}
