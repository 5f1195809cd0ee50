package history

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	runID, err := store.BeginRun(time.Now(), "run-a", "orpheus", schema.Last30DaysMode, map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(1, time.Now(), schema.RunOutcome{Kind: "ok"}))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	params := map[string]any{"workspace": "hackclub", "lag_offset_days": 3}

	okID, err := store.BeginRun(start, "run-a", "orpheus", schema.LastYearMode, params)
	require.NoError(t, err)
	assert.Greater(t, okID, int64(0))
	require.NoError(t, store.EndRun(okID, start.Add(1500*time.Millisecond), schema.RunOutcome{Kind: "ok"}))

	failedID, err := store.BeginRun(start.Add(time.Hour), "run-b", "heidi", schema.AllTimeMode, params)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(failedID, start.Add(time.Hour+200*time.Millisecond), schema.RunOutcome{
		Kind:        "upstream",
		FailedStage: schema.StageFetchCodingTime,
	}))

	openID, err := store.BeginRun(start.Add(2*time.Hour), "run-c", "orpheus", schema.Last30DaysMode, nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)

	first := runs[0]
	assert.Equal(t, okID, first.RunID)
	assert.Equal(t, "run-a", first.RunUUID)
	assert.Equal(t, "orpheus", first.Username)
	assert.Equal(t, "last_year", first.Mode)
	assert.True(t, first.StartTime.Equal(start))
	require.NotNil(t, first.EndTime)
	require.NotNil(t, first.RunDurationMs)
	assert.Equal(t, int32(1500), *first.RunDurationMs)
	require.NotNil(t, first.Outcome)
	assert.Equal(t, "ok", *first.Outcome)
	assert.Nil(t, first.FailedStage)
	require.NotNil(t, first.ConfigParams)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(*first.ConfigParams), &decoded))
	assert.Equal(t, "hackclub", decoded["workspace"])

	second := runs[1]
	require.NotNil(t, second.FailedStage)
	assert.Equal(t, "fetch_coding_time", *second.FailedStage)
	assert.Equal(t, "upstream", *second.Outcome)

	third := runs[2]
	assert.Equal(t, openID, third.RunID)
	assert.Nil(t, third.EndTime)
	assert.Nil(t, third.Outcome)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, 1, status.FailedRuns)
	assert.Equal(t, openID, status.LastRunID)
	assert.True(t, status.OldestRunTime.Equal(start))
	assert.True(t, status.LastRunTime.Equal(start.Add(2*time.Hour)))
	assert.Equal(t, int64(3), status.TableSizes[reportRunsTable])
}

func TestRunStore_EmptyStatus(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
	assert.True(t, status.LastRunTime.IsZero())
}

func TestRunStore_EndRunUnknownID(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.EndRun(999, time.Now(), schema.RunOutcome{Kind: "ok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 999")
}

func TestNewRunStore_UnsupportedBackend(t *testing.T) {
	_, err := NewRunStore(schema.DatabaseBackend("redis"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}
