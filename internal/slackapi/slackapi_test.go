package slackapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/logger"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeMembers = `{
  "ok": true,
  "num_found": 3,
  "member_activity": [
    {"username": "orpheus_bot", "user_id": "U1", "display_name": "Bot", "date_last_active": 1700000000,
     "messages_posted": 900, "reactions_added": 1, "days_active": 30, "days_active_desktop": 30,
     "days_active_android": 0, "days_active_ios": 0},
    {"username": "orpheus", "user_id": "U2", "display_name": "Orpheus", "date_last_active": 1700000100,
     "messages_posted": 100, "reactions_added": 50, "days_active": 12, "days_active_desktop": 10,
     "days_active_android": 5, "days_active_ios": 0, "slack_huddles_count": 2},
    {"username": "orpheus2", "user_id": "U3", "display_name": "Other", "date_last_active": 0,
     "messages_posted": 1, "reactions_added": 0, "days_active": 1, "days_active_desktop": 1,
     "days_active_android": 0, "days_active_ios": 0}
  ]
}`

// newTestClient points a client at an httptest server for both endpoints.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []ClientOption{
		WithAnalyticsBaseURL(server.URL),
		WithProfileBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	}
	return NewClient("hackclub", "xoxc-token", "xoxd-a+b/c==", append(base, opts...)...)
}

func TestFetchMemberActivityRequest(t *testing.T) {
	var got *http.Request
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r
		form = r.PostForm
		_, _ = w.Write([]byte(threeMembers))
	}, WithCount(250))

	_, err := client.FetchMemberActivity(context.Background(), "orpheus", schema.DateRange{Token: schema.Last30DaysToken})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, analyticsPath, got.URL.Path)
	assert.Equal(t, "d=xoxd-a%2Bb%2Fc%3D%3D", got.Header.Get("Cookie"))
	assert.Equal(t, "hackclub.slack.com", got.Header.Get("Authority"))
	assert.Equal(t, "xoxc-token", form.Get("token"))
	assert.Equal(t, "30d", form.Get("date_range"))
	assert.Equal(t, "250", form.Get("count"))
	assert.Equal(t, "username", form.Get("sort_column"))
	assert.Equal(t, "asc", form.Get("sort_direction"))
	assert.Equal(t, "orpheus", form.Get("query"))
	assert.Empty(t, form.Get("start_date"))
}

func TestFetchMemberActivityExplicitRange(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = w.Write([]byte(threeMembers))
	})

	dr := schema.DateRange{
		Start: civil.Date{Year: 2024, Month: time.February, Day: 29},
		End:   civil.Date{Year: 2025, Month: time.February, Day: 28},
	}
	_, err := client.FetchMemberActivity(context.Background(), "orpheus", dr)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", form.Get("start_date"))
	assert.Equal(t, "2025-02-28", form.Get("end_date"))
	assert.Empty(t, form.Get("date_range"))
}

func TestFetchMemberActivityPicksExactMatch(t *testing.T) {
	var logs bytes.Buffer
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(threeMembers))
	}, WithLogger(logger.NewWithWriter("json", "warn", &logs)))

	member, err := client.FetchMemberActivity(context.Background(), "orpheus", schema.DateRange{Token: "30d"})
	require.NoError(t, err)

	assert.Equal(t, "U2", member.UserID)
	assert.Equal(t, int64(100), member.MessagesPosted)
	require.NotNil(t, member.SlackHuddlesCount)
	assert.Equal(t, int64(2), *member.SlackHuddlesCount)
	assert.Contains(t, logs.String(), `"num_found":3`)
}

func TestFetchMemberActivityErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		username string
		wantKind string
		check    func(*testing.T, error)
	}{
		{
			name:     "non-2xx status",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			username: "orpheus",
			wantKind: contract.KindUpstream,
			check: func(t *testing.T, err error) {
				var upErr *contract.UpstreamError
				require.True(t, errors.As(err, &upErr))
				assert.Equal(t, 500, upErr.StatusCode)
				assert.Equal(t, "oops", upErr.Body)
			},
		},
		{
			name:     "ok false",
			status:   http.StatusOK,
			body:     `{"ok": false, "error": "not_allowed_token_type", "num_found": 3}`,
			username: "orpheus",
			wantKind: contract.KindUpstream,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "not_allowed_token_type")
			},
		},
		{
			name:     "not JSON",
			status:   http.StatusOK,
			body:     `<html>login</html>`,
			username: "orpheus",
			wantKind: contract.KindSchema,
		},
		{
			name:     "missing messages_posted",
			status:   http.StatusOK,
			body:     `{"ok": true, "num_found": 1, "member_activity": [{"username": "orpheus", "user_id": "U2", "display_name": "O", "date_last_active": 1, "reactions_added": 0, "days_active": 0, "days_active_desktop": 0, "days_active_android": 0, "days_active_ios": 0}]}`,
			username: "orpheus",
			wantKind: contract.KindSchema,
			check: func(t *testing.T, err error) {
				var schemaErr *contract.SchemaError
				require.True(t, errors.As(err, &schemaErr))
				assert.Equal(t, "member_activity[0].messages_posted", schemaErr.Field)
			},
		},
		{
			name:     "negative reactions",
			status:   http.StatusOK,
			body:     `{"ok": true, "num_found": 1, "member_activity": [{"username": "orpheus", "user_id": "U2", "display_name": "O", "date_last_active": 1, "messages_posted": 1, "reactions_added": -4, "days_active": 0, "days_active_desktop": 0, "days_active_android": 0, "days_active_ios": 0}]}`,
			username: "orpheus",
			wantKind: contract.KindSchema,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "reactions_added")
			},
		},
		{
			name:     "fractional count",
			status:   http.StatusOK,
			body:     `{"ok": true, "num_found": 1.5, "member_activity": []}`,
			username: "orpheus",
			wantKind: contract.KindSchema,
		},
		{
			name:     "empty member list",
			status:   http.StatusOK,
			body:     `{"ok": true, "num_found": 1, "member_activity": []}`,
			username: "orpheus",
			wantKind: contract.KindSchema,
		},
		{
			name:     "zero num_found",
			status:   http.StatusOK,
			body:     `{"ok": true, "num_found": 0, "member_activity": []}`,
			username: "orpheus",
			wantKind: contract.KindSchema,
		},
		{
			name:     "ok false with drifted num_found",
			status:   http.StatusOK,
			body:     `{"ok": false, "error": "ratelimited", "num_found": "n/a"}`,
			username: "orpheus",
			wantKind: contract.KindUpstream,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "ratelimited")
			},
		},
		{
			name:     "ok false with object member_activity",
			status:   http.StatusOK,
			body:     `{"ok": false, "error": "ratelimited", "num_found": 0, "member_activity": {}}`,
			username: "orpheus",
			wantKind: contract.KindUpstream,
		},
		{
			name:     "ok false with non-string error",
			status:   http.StatusOK,
			body:     `{"ok": false, "error": {"code": 7}}`,
			username: "orpheus",
			wantKind: contract.KindUpstream,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, `"code"`)
			},
		},
		{
			name:     "ok not a bool",
			status:   http.StatusOK,
			body:     `{"ok": "false", "num_found": 1, "member_activity": []}`,
			username: "orpheus",
			wantKind: contract.KindSchema,
		},
		{
			name:     "no exact match",
			status:   http.StatusOK,
			body:     threeMembers,
			username: "orph",
			wantKind: contract.KindNotFound,
			check: func(t *testing.T, err error) {
				var nf *contract.NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, []string{"orpheus_bot", "orpheus", "orpheus2"}, nf.Candidates)
			},
		},
		{
			name:     "match is case sensitive",
			status:   http.StatusOK,
			body:     threeMembers,
			username: "Orpheus",
			wantKind: contract.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.FetchMemberActivity(context.Background(), tt.username, schema.DateRange{Token: "30d"})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, contract.FailureKind(err))
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestFetchMemberActivityTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := client.FetchMemberActivity(context.Background(), "orpheus", schema.DateRange{Token: "30d"})
	require.Error(t, err)
	assert.Equal(t, contract.KindUpstream, contract.FailureKind(err))
}

func TestGetAvatarURL(t *testing.T) {
	var form url.Values
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"ok": true, "profile": {"image_original": "https://avatars.example.com/U2.png"}}`))
	})

	avatar, err := client.GetAvatarURL(context.Background(), "U2")
	require.NoError(t, err)
	assert.Equal(t, "https://avatars.example.com/U2.png", avatar)
	assert.Equal(t, profilePath, path)
	assert.Equal(t, "U2", form.Get("user"))
	assert.Equal(t, "xoxc-token", form.Get("token"))
}

func TestGetAvatarURLErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{"forbidden", http.StatusForbidden, `{}`, contract.KindUpstream},
		{"ok false", http.StatusOK, `{"ok": false, "error": "user_not_found"}`, contract.KindUpstream},
		{"missing profile", http.StatusOK, `{"ok": true}`, contract.KindSchema},
		{"relative image", http.StatusOK, `{"ok": true, "profile": {"image_original": "/img.png"}}`, contract.KindSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.GetAvatarURL(context.Background(), "U2")
			assert.Equal(t, tt.wantKind, contract.FailureKind(err))
		})
	}
}

func TestNewClientFromConfig(t *testing.T) {
	client := NewClientFromConfig(&contract.Config{
		Workspace:      "hackclub",
		XOXC:           "xoxc-1",
		XOXD:           "xoxd-2",
		AnalyticsCount: 10,
		RequestTimeout: 3 * time.Second,
	})
	assert.Equal(t, "https://hackclub.slack.com", client.analyticsBaseURL)
	assert.Equal(t, defaultProfileBaseURL, client.profileBaseURL)
	assert.Equal(t, 10, client.count)
	assert.Equal(t, 3*time.Second, client.httpClient.Timeout)
}
