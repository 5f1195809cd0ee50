package contract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/huangsam/shiptalkers/schema"
)

// Failure kinds used for user-facing messages, HTTP statuses and run history.
const (
	KindOK             = "ok"
	KindUpstream       = "upstream"
	KindSchema         = "schema"
	KindNotFound       = "not_found"
	KindDivisionByZero = "division_by_zero"
	KindConfig         = "config"
	KindInternal       = "internal"
)

// maxBodySnippet bounds how much of an upstream body is kept on an error.
const maxBodySnippet = 512

// UpstreamError is a transport failure, timeout, non-2xx status or ok:false envelope.
type UpstreamError struct {
	Service    string // "analytics", "coding-time" or "profile"
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s request failed", e.Service)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " with status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " (body: %s)", e.Body)
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError builds an UpstreamError, truncating the body snippet.
func NewUpstreamError(service string, status int, body []byte, err error) *UpstreamError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxBodySnippet {
		cut := maxBodySnippet
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut] + "..."
	}
	return &UpstreamError{Service: service, StatusCode: status, Body: snippet, Err: err}
}

// SchemaError means a response body failed structural validation.
type SchemaError struct {
	Service string
	Field   string // JSON path of the offending field, empty for the whole body
	Reason  string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s response failed validation: %s", e.Service, e.Reason)
	}
	return fmt.Sprintf("%s response failed validation at %s: %s", e.Service, e.Field, e.Reason)
}

// NotFoundError means no returned record matched the username exactly.
type NotFoundError struct {
	Username   string
	Candidates []string // usernames the upstream did return
}

func (e *NotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("user %q not found", e.Username)
	}
	return fmt.Sprintf("user %q not found among %d candidates (%s)", e.Username, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// DivisionByZeroError is returned when the coding-time total is zero.
type DivisionByZeroError struct{}

func (e *DivisionByZeroError) Error() string {
	return "cannot compare against zero coding time"
}

// ConfigError is a missing or malformed configuration value. It is fatal at startup.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %q: %s", e.Key, e.Reason)
}

// StageError tags a failure with the pipeline stage it came from.
type StageError struct {
	Stage schema.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailureKind classifies an error into one of the Kind* constants.
func FailureKind(err error) string {
	if err == nil {
		return KindOK
	}
	var (
		upstreamErr *UpstreamError
		schemaErr   *SchemaError
		notFoundErr *NotFoundError
		divErr      *DivisionByZeroError
		configErr   *ConfigError
	)
	switch {
	case errors.As(err, &upstreamErr):
		return KindUpstream
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &divErr):
		return KindDivisionByZero
	case errors.As(err, &configErr):
		return KindConfig
	default:
		return KindInternal
	}
}

// FailedStage returns the stage recorded on err, or "" when there is none.
func FailedStage(err error) schema.Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
