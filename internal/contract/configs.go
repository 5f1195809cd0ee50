package contract

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/shiptalkers/schema"
)

// Default values for configuration.
const (
	DefaultAnalyticsCount       = 100
	MaxAnalyticsCount           = 1000
	DefaultLagOffsetDays        = 3
	MaxLagOffsetDays            = 30
	DefaultRequestTimeout       = 15 * time.Second
	DefaultWorkspaceConcurrency = 2
	DefaultListenAddr           = ":3000"
	DefaultRateLimit            = 1.0
	DefaultRateBurst            = 5
	DefaultAvatarURL            = "https://ca.slack-edge.com/T0266FRGM-U07SPF9D4BU-g7bf54aa89eb-48"
)

// Credential prefixes checked at startup.
const (
	xoxcPrefix = "xoxc-"
	xoxdPrefix = "xoxd-"
)

// Placeholders the coding-time endpoint template must contain.
const (
	CodingTimeIDPlaceholder    = ":id"
	CodingTimeRangePlaceholder = ":range"
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightsRawInput holds custom estimator weights from the YAML config file.
// Pointers distinguish "not provided" from an explicit zero.
type WeightsRawInput struct {
	Message           *float64 `mapstructure:"message"`
	Reaction          *float64 `mapstructure:"reaction"`
	DesktopDayMinutes *float64 `mapstructure:"desktop_day_minutes"`
	MobileDayMinutes  *float64 `mapstructure:"mobile_day_minutes"`
}

// Config holds the runtime configuration for the pipeline.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Workspace          string
	XOXC               string // Please use env var as this is a secret
	XOXD               string // URL-decoded session cookie value
	CodingTimeEndpoint string
	AnalyticsBaseURL   string // empty means https://{workspace}.slack.com
	ProfileBaseURL     string // empty means https://slack.com

	AnalyticsCount        int
	LagOffsetDays         int
	AllowAllTimeAnalytics bool
	RequestTimeout        time.Duration
	WorkspaceConcurrency  int
	SendStartDate         bool
	DefaultAvatarURL      string
	LookupAvatar          bool

	// CustomWeights holds only the weights overridden in config.
	CustomWeights map[schema.WeightKey]float64

	// ComputedWeights is the final weight table, computed from defaults + custom overrides.
	ComputedWeights map[schema.WeightKey]float64

	Output     schema.OutputMode
	OutputFile string
	UseColors  bool
	Width      int // Terminal width override (0 = auto-detect)

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string
	LogFile   string

	Listen    string
	RateLimit float64
	RateBurst int
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Credentials ---
	Workspace          string `mapstructure:"workspace"`
	XOXC               string `mapstructure:"xoxc"`
	XOXD               string `mapstructure:"xoxd"`
	CodingTimeEndpoint string `mapstructure:"coding-time-endpoint"`
	AnalyticsBaseURL   string `mapstructure:"analytics-base-url"`
	ProfileBaseURL     string `mapstructure:"profile-base-url"`

	// --- Pipeline tuning ---
	AnalyticsCount        int    `mapstructure:"analytics-count"`
	LagOffsetDays         int    `mapstructure:"lag-offset-days"`
	AllowAllTimeAnalytics string `mapstructure:"allow-all-time-analytics"`
	RequestTimeout        string `mapstructure:"request-timeout"`
	WorkspaceConcurrency  int    `mapstructure:"workspace-concurrency"`
	SendStartDate         string `mapstructure:"send-start-date"`
	DefaultAvatarURL      string `mapstructure:"default-avatar-url"`
	LookupAvatar          string `mapstructure:"lookup-avatar"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`

	// --- History ---
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Logging ---
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
	LogFile   string `mapstructure:"log-file"`

	// --- Server ---
	Listen    string  `mapstructure:"listen"`
	RateLimit float64 `mapstructure:"rate-limit"`
	RateBurst int     `mapstructure:"rate-burst"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Every failure is a *ConfigError.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateCredentials(cfg, input); err != nil {
		return err
	}
	if err := validateTuning(cfg, input); err != nil {
		return err
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	if err := validateOutput(cfg, input); err != nil {
		return err
	}
	if err := validateHistoryConfig(cfg, input); err != nil {
		return err
	}
	return validateServer(cfg, input)
}

// ProcessDisplayConfig validates only what offline commands need: weights and output.
// It never touches credentials, so commands like weights run without a workspace.
func ProcessDisplayConfig(cfg *Config, input *ConfigRawInput) error {
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	return validateOutput(cfg, input)
}

// ProcessHistoryConfig validates only the run-history backend settings.
func ProcessHistoryConfig(cfg *Config, input *ConfigRawInput) error {
	if err := validateHistoryConfig(cfg, input); err != nil {
		return err
	}
	cfg.OutputFile = input.OutputFile
	return nil
}

// validateCredentials checks the secrets and endpoints needed to reach both upstreams.
func validateCredentials(cfg *Config, input *ConfigRawInput) error {
	workspace := strings.TrimSpace(input.Workspace)
	if workspace == "" {
		return &ConfigError{Key: "workspace", Reason: "is required"}
	}
	if strings.ContainsAny(workspace, "./:@ ") {
		return &ConfigError{Key: "workspace", Reason: "must be a bare workspace subdomain"}
	}
	cfg.Workspace = workspace

	if !strings.HasPrefix(input.XOXC, xoxcPrefix) {
		return &ConfigError{Key: "xoxc", Reason: "must start with " + xoxcPrefix}
	}
	cfg.XOXC = input.XOXC

	xoxd, err := DecodeSessionCookie(input.XOXD)
	if err != nil {
		return err
	}
	cfg.XOXD = xoxd

	if err := ValidateCodingTimeEndpoint(input.CodingTimeEndpoint); err != nil {
		return err
	}
	cfg.CodingTimeEndpoint = input.CodingTimeEndpoint

	baseURLs := []struct{ key, raw string }{
		{"analytics-base-url", input.AnalyticsBaseURL},
		{"profile-base-url", input.ProfileBaseURL},
	}
	for _, base := range baseURLs {
		if base.raw == "" {
			continue
		}
		if _, err := parseAbsoluteURL(base.raw); err != nil {
			return &ConfigError{Key: base.key, Reason: err.Error()}
		}
	}
	cfg.AnalyticsBaseURL = strings.TrimRight(input.AnalyticsBaseURL, "/")
	cfg.ProfileBaseURL = strings.TrimRight(input.ProfileBaseURL, "/")

	return nil
}

// DecodeSessionCookie URL-decodes the xoxd value once and checks its prefix.
// The value is re-encoded when it is placed into the "d" cookie.
func DecodeSessionCookie(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", &ConfigError{Key: "xoxd", Reason: "is not valid URL encoding"}
	}
	if !strings.HasPrefix(decoded, xoxdPrefix) {
		return "", &ConfigError{Key: "xoxd", Reason: "must start with " + xoxdPrefix}
	}
	return decoded, nil
}

// ValidateCodingTimeEndpoint checks that the template is an absolute URL with both placeholders.
func ValidateCodingTimeEndpoint(template string) error {
	if template == "" {
		return &ConfigError{Key: "coding-time-endpoint", Reason: "is required"}
	}
	if _, err := parseAbsoluteURL(template); err != nil {
		return &ConfigError{Key: "coding-time-endpoint", Reason: err.Error()}
	}
	for _, placeholder := range []string{CodingTimeIDPlaceholder, CodingTimeRangePlaceholder} {
		if !strings.Contains(template, placeholder) {
			return &ConfigError{Key: "coding-time-endpoint", Reason: fmt.Sprintf("must contain the %s placeholder", placeholder)}
		}
	}
	return nil
}

// parseAbsoluteURL accepts only http(s) URLs with a host.
func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("must include a host")
	}
	return u, nil
}

// validateTuning processes the numeric and boolean pipeline knobs.
func validateTuning(cfg *Config, input *ConfigRawInput) error {
	if input.AnalyticsCount < 1 || input.AnalyticsCount > MaxAnalyticsCount {
		return &ConfigError{Key: "analytics-count", Reason: fmt.Sprintf("must be between 1 and %d", MaxAnalyticsCount)}
	}
	cfg.AnalyticsCount = input.AnalyticsCount

	if input.LagOffsetDays < 0 || input.LagOffsetDays > MaxLagOffsetDays {
		return &ConfigError{Key: "lag-offset-days", Reason: fmt.Sprintf("must be between 0 and %d", MaxLagOffsetDays)}
	}
	cfg.LagOffsetDays = input.LagOffsetDays

	timeout, err := time.ParseDuration(input.RequestTimeout)
	if err != nil || timeout <= 0 {
		return &ConfigError{Key: "request-timeout", Reason: "must be a positive duration such as 15s"}
	}
	cfg.RequestTimeout = timeout

	if input.WorkspaceConcurrency < 1 {
		return &ConfigError{Key: "workspace-concurrency", Reason: "must be at least 1"}
	}
	cfg.WorkspaceConcurrency = input.WorkspaceConcurrency

	bools := []struct {
		key string
		raw string
		dst *bool
	}{
		{"allow-all-time-analytics", input.AllowAllTimeAnalytics, &cfg.AllowAllTimeAnalytics},
		{"send-start-date", input.SendStartDate, &cfg.SendStartDate},
		{"lookup-avatar", input.LookupAvatar, &cfg.LookupAvatar},
	}
	for _, b := range bools {
		v, err := ParseBoolString(b.raw)
		if err != nil {
			return &ConfigError{Key: b.key, Reason: err.Error()}
		}
		*b.dst = v
	}

	cfg.DefaultAvatarURL = input.DefaultAvatarURL
	if cfg.DefaultAvatarURL == "" {
		cfg.DefaultAvatarURL = DefaultAvatarURL
	}
	return nil
}

// ProcessWeightsRawInput converts WeightsRawInput into a map holding only the provided weights.
func ProcessWeightsRawInput(weights WeightsRawInput) (map[schema.WeightKey]float64, error) {
	result := make(map[schema.WeightKey]float64)
	provided := map[schema.WeightKey]*float64{
		schema.WeightMessage:           weights.Message,
		schema.WeightReaction:          weights.Reaction,
		schema.WeightDesktopDayMinutes: weights.DesktopDayMinutes,
		schema.WeightMobileDayMinutes:  weights.MobileDayMinutes,
	}
	for _, key := range schema.AllWeightKeys {
		v := provided[key]
		if v == nil {
			continue
		}
		if *v < 0 {
			return nil, &ConfigError{Key: "weights." + string(key), Reason: "must not be negative"}
		}
		result[key] = *v
	}
	return result, nil
}

// processCustomWeights merges custom weights over the canonical defaults.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	custom, err := ProcessWeightsRawInput(input.Weights)
	if err != nil {
		return err
	}
	cfg.CustomWeights = custom

	cfg.ComputedWeights = schema.GetDefaultWeights()
	maps.Copy(cfg.ComputedWeights, custom)
	return nil
}

// validateOutput processes output format, destination and color settings.
func validateOutput(cfg *Config, input *ConfigRawInput) error {
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return &ConfigError{Key: "output", Reason: fmt.Sprintf("%q is not one of text, json, csv", input.Output)}
	}
	cfg.OutputFile = input.OutputFile

	useColors, err := ParseBoolString(input.Color)
	if err != nil {
		return &ConfigError{Key: "color", Reason: err.Error()}
	}
	cfg.UseColors = useColors

	if input.Width < 0 {
		return &ConfigError{Key: "width", Reason: "must not be negative"}
	}
	cfg.Width = input.Width
	return nil
}

// validateHistoryConfig validates the run-history backend configuration.
func validateHistoryConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseDatabaseBackend(input.HistoryBackend)
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// ParseDatabaseBackend maps a raw backend name to a DatabaseBackend. Empty means none.
func ParseDatabaseBackend(raw string) (schema.DatabaseBackend, error) {
	if raw == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(raw))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", &ConfigError{Key: "history-backend", Reason: fmt.Sprintf("%q must be sqlite, mysql, postgresql or none", raw)}
	}
	return backend, nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return &ConfigError{Key: "history-db-connect", Reason: fmt.Sprintf("is required when using %s backend", backend)}
		}
		if !strings.Contains(connStr, "@tcp(") {
			return &ConfigError{Key: "history-db-connect", Reason: "MySQL connection string must contain '@tcp(' for host:port specification"}
		}
		if !strings.Contains(connStr, "/") {
			return &ConfigError{Key: "history-db-connect", Reason: "MySQL connection string must contain '/' followed by database name"}
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return &ConfigError{Key: "history-db-connect", Reason: fmt.Sprintf("is required when using %s backend", backend)}
		}
		if !strings.Contains(connStr, "host=") {
			return &ConfigError{Key: "history-db-connect", Reason: "PostgreSQL connection string must contain 'host=' parameter"}
		}
		if !strings.Contains(connStr, "dbname=") {
			return &ConfigError{Key: "history-db-connect", Reason: "PostgreSQL connection string must contain 'dbname=' parameter"}
		}
	}
	return nil
}

// validateServer processes logging and hosting settings.
func validateServer(cfg *Config, input *ConfigRawInput) error {
	cfg.LogLevel = input.LogLevel
	cfg.LogFormat = input.LogFormat
	cfg.LogFile = input.LogFile

	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListenAddr
	}
	if input.RateLimit <= 0 {
		return &ConfigError{Key: "rate-limit", Reason: "must be positive"}
	}
	cfg.RateLimit = input.RateLimit
	if input.RateBurst < 1 {
		return &ConfigError{Key: "rate-burst", Reason: "must be at least 1"}
	}
	cfg.RateBurst = input.RateBurst
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
