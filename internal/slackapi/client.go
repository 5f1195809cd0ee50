// Package slackapi fetches member analytics and profiles from the chat workspace.
package slackapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const (
	analyticsPath         = "/api/admin.analytics.getMemberAnalytics"
	profilePath           = "/api/users.profile.get"
	defaultProfileBaseURL = "https://slack.com"

	serviceAnalytics = "analytics"
	serviceProfile   = "profile"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20
)

var tracer = otel.Tracer("shiptalkers/slackapi")

// Client talks to the workspace's administrative analytics and profile endpoints.
// It is safe for concurrent use.
type Client struct {
	workspace        string
	token            string // xoxc
	sessionCookie    string // decoded xoxd
	analyticsBaseURL string
	profileBaseURL   string
	count            int
	httpClient       *http.Client
	log              *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAnalyticsBaseURL overrides https://{workspace}.slack.com (useful for testing).
func WithAnalyticsBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.analyticsBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithProfileBaseURL overrides https://slack.com (useful for testing).
func WithProfileBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.profileBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCount sets how many records the analytics query asks for.
func WithCount(count int) ClientOption {
	return func(c *Client) {
		c.count = count
	}
}

// WithLogger sets the logger used for soft warnings.
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a client for one workspace. sessionCookie is the decoded xoxd value.
func NewClient(workspace, token, sessionCookie string, opts ...ClientOption) *Client {
	c := &Client{
		workspace:        workspace,
		token:            token,
		sessionCookie:    sessionCookie,
		analyticsBaseURL: fmt.Sprintf("https://%s.slack.com", workspace),
		profileBaseURL:   defaultProfileBaseURL,
		count:            contract.DefaultAnalyticsCount,
		httpClient: &http.Client{
			Timeout:   contract.DefaultRequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client from validated configuration.
func NewClientFromConfig(cfg *contract.Config) *Client {
	return NewClient(cfg.Workspace, cfg.XOXC, cfg.XOXD,
		WithAnalyticsBaseURL(cfg.AnalyticsBaseURL),
		WithProfileBaseURL(cfg.ProfileBaseURL),
		WithTimeout(cfg.RequestTimeout),
		WithCount(cfg.AnalyticsCount),
	)
}

var (
	_ contract.AnalyticsClient = &Client{}
	_ contract.ProfileClient   = &Client{}
)

// authCookie re-encodes the session value the way browsers send it.
func (c *Client) authCookie() string {
	return "d=" + url.QueryEscape(c.sessionCookie)
}

// postForm sends a form-encoded POST and returns the body of a 2xx response.
// Anything else, including transport failures and timeouts, is an UpstreamError.
func (c *Client) postForm(ctx context.Context, service, endpoint string, form url.Values, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", c.authCookie())
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contract.NewUpstreamError(service, 0, nil, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, contract.NewUpstreamError(service, resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, contract.NewUpstreamError(service, resp.StatusCode, body, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return body, nil
}
