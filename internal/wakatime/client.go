// Package wakatime fetches coding-time totals from a WakaTime-compatible stats endpoint.
package wakatime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	service          = "coding-time"
	maxResponseBytes = 4 << 20
)

var tracer = otel.Tracer("shiptalkers/wakatime")

// statsResponse mirrors {"data": {"total_seconds": number}} with optional fields.
type statsResponse struct {
	Data *struct {
		TotalSeconds *float64 `json:"total_seconds"`
	} `json:"data"`
}

// Client resolves the endpoint template and reads the total.
type Client struct {
	template      string
	sendStartDate bool
	httpClient    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds each request.
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

// WithStartDate adds start_date to the query when the range is explicit.
func WithStartDate(enabled bool) ClientOption {
	return func(c *Client) {
		c.sendStartDate = enabled
	}
}

// NewClient creates a client for an endpoint template containing :id and :range.
func NewClient(template string, opts ...ClientOption) *Client {
	c := &Client{
		template: template,
		httpClient: &http.Client{
			Timeout:   contract.DefaultRequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client from validated configuration.
func NewClientFromConfig(cfg *contract.Config) *Client {
	return NewClient(cfg.CodingTimeEndpoint,
		WithTimeout(cfg.RequestTimeout),
		WithStartDate(cfg.SendStartDate),
	)
}

var _ contract.CodingTimeClient = &Client{}

// ResolveURL substitutes the user ID and range keyword into the template.
func (c *Client) ResolveURL(userID string, mode schema.ReportingMode, dateRange schema.DateRange) (string, error) {
	raw := strings.Replace(c.template, contract.CodingTimeIDPlaceholder, url.PathEscape(userID), 1)
	raw = strings.Replace(raw, contract.CodingTimeRangePlaceholder, mode.CodingTimeRange(), 1)

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid coding-time endpoint: %w", err)
	}
	if c.sendStartDate && !dateRange.IsRelative() {
		q := u.Query()
		q.Set("start_date", dateRange.Start.String())
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchCodingTime returns the total coding seconds for userID in the mode's range.
func (c *Client) FetchCodingTime(ctx context.Context, userID string, mode schema.ReportingMode, dateRange schema.DateRange) (float64, error) {
	ctx, span := tracer.Start(ctx, "wakatime.fetch_coding_time",
		trace.WithAttributes(
			attribute.String("wakatime.user_id", userID),
			attribute.String("wakatime.range", mode.CodingTimeRange()),
		))
	defer span.End()

	total, err := c.fetch(ctx, userID, mode, dateRange)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Float64("wakatime.total_seconds", total))
	return total, nil
}

func (c *Client) fetch(ctx context.Context, userID string, mode schema.ReportingMode, dateRange schema.DateRange) (float64, error) {
	endpoint, err := c.ResolveURL(userID, mode, dateRange)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create coding-time request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, contract.NewUpstreamError(service, 0, nil, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, contract.NewUpstreamError(service, resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, contract.NewUpstreamError(service, resp.StatusCode, body, fmt.Errorf("unexpected status %s", resp.Status))
	}

	return DecodeTotalSeconds(body)
}

// DecodeTotalSeconds validates a stats body and returns data.total_seconds.
func DecodeTotalSeconds(body []byte) (float64, error) {
	var stats statsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return 0, &contract.SchemaError{Service: service, Field: typeErr.Field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
		}
		return 0, &contract.SchemaError{Service: service, Reason: fmt.Sprintf("body is not valid JSON: %v", err)}
	}
	if stats.Data == nil {
		return 0, &contract.SchemaError{Service: service, Field: "data", Reason: "is missing"}
	}
	if stats.Data.TotalSeconds == nil {
		return 0, &contract.SchemaError{Service: service, Field: "data.total_seconds", Reason: "is missing"}
	}
	total := *stats.Data.TotalSeconds
	if total < 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, &contract.SchemaError{Service: service, Field: "data.total_seconds", Reason: "must be a non-negative number"}
	}
	return total, nil
}
