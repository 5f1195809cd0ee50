package core

import "context"

// Context keys for report options
type contextKey string

const (
	requestSourceKey  contextKey = "requestSource"
	suppressHeaderKey contextKey = "suppressHeader"
)

// Request sources recorded with each run.
const (
	SourceCLI  = "cli"
	SourceMCP  = "mcp"
	SourceHTTP = "http"
)

// WithRequestSource records which surface started the run.
func WithRequestSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, requestSourceKey, source)
}

// requestSource returns the surface that started the run
func requestSource(ctx context.Context) string {
	if source, ok := ctx.Value(requestSourceKey).(string); ok && source != "" {
		return source
	}
	return SourceCLI // default: command line
}

// WithSuppressHeader sets whether headers should be suppressed in the context
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
