package wakatime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	explicit := schema.DateRange{
		Start: civil.Date{Year: 2024, Month: time.February, Day: 29},
		End:   civil.Date{Year: 2025, Month: time.February, Day: 28},
	}
	relative := schema.DateRange{Token: schema.Last30DaysToken}
	template := "https://waka.example.com/api/v1/users/:id/stats/:range"

	tests := []struct {
		name      string
		startDate bool
		userID    string
		mode      schema.ReportingMode
		dateRange schema.DateRange
		expected  string
	}{
		{"last 30 days", false, "U2", schema.Last30DaysMode, relative, "https://waka.example.com/api/v1/users/U2/stats/last_30_days"},
		{"last year", false, "U2", schema.LastYearMode, explicit, "https://waka.example.com/api/v1/users/U2/stats/last_year"},
		{"all time", false, "U2", schema.AllTimeMode, schema.DateRange{Token: schema.AllTimeToken}, "https://waka.example.com/api/v1/users/U2/stats/all_time"},
		{"start date on explicit range", true, "U2", schema.LastYearMode, explicit, "https://waka.example.com/api/v1/users/U2/stats/last_year?start_date=2024-02-29"},
		{"start date skipped on relative range", true, "U2", schema.Last30DaysMode, relative, "https://waka.example.com/api/v1/users/U2/stats/last_30_days"},
		{"user id is escaped", false, "U/2", schema.Last30DaysMode, relative, "https://waka.example.com/api/v1/users/U%2F2/stats/last_30_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(template, WithStartDate(tt.startDate))
			got, err := client.ResolveURL(tt.userID, tt.mode, tt.dateRange)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFetchCodingTime(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"data": {"total_seconds": 35600.5, "human_readable_total": "9 hrs 53 mins"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/users/:id/stats/:range", WithHTTPClient(server.Client()))
	total, err := client.FetchCodingTime(context.Background(), "U2", schema.LastYearMode, schema.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 35600.5, total)
	assert.Equal(t, "/users/U2/stats/last_year", path)
}

func TestFetchCodingTimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{"forbidden", http.StatusForbidden, `{"error": "time range not allowed"}`, contract.KindUpstream},
		{"not found", http.StatusNotFound, ``, contract.KindUpstream},
		{"missing data", http.StatusOK, `{}`, contract.KindSchema},
		{"missing total", http.StatusOK, `{"data": {}}`, contract.KindSchema},
		{"string total", http.StatusOK, `{"data": {"total_seconds": "12"}}`, contract.KindSchema},
		{"negative total", http.StatusOK, `{"data": {"total_seconds": -1}}`, contract.KindSchema},
		{"not JSON", http.StatusOK, `nope`, contract.KindSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL+"/:id/:range", WithHTTPClient(server.Client()))
			_, err := client.FetchCodingTime(context.Background(), "U2", schema.Last30DaysMode, schema.DateRange{Token: "30d"})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, contract.FailureKind(err))
		})
	}
}

func TestFetchCodingTimeUpstreamDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/:id/:range", WithHTTPClient(server.Client()))
	_, err := client.FetchCodingTime(context.Background(), "U2", schema.AllTimeMode, schema.DateRange{Token: "all"})

	var upErr *contract.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "coding-time", upErr.Service)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "permission denied", upErr.Body)
}

func TestFetchCodingTimeCanceled(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/:id/:range")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchCodingTime(ctx, "U2", schema.Last30DaysMode, schema.DateRange{Token: "30d"})
	assert.Equal(t, contract.KindUpstream, contract.FailureKind(err))
}
