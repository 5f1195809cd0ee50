package schema

// Custom string types for type safety.
type (
	// ReportingMode represents the date-range policy used for a report.
	ReportingMode string

	// WeightKey represents keys used in the time-cost weight table.
	WeightKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// Stage names a step of the report pipeline.
	Stage string
)

// All reporting modes supported.
const (
	Last30DaysMode ReportingMode = "last_30_days" // default
	LastYearMode   ReportingMode = "last_year"
	AllTimeMode    ReportingMode = "all_time"
)

// Weight keys used by the time-cost estimator.
const (
	WeightMessage           WeightKey = "message"             // seconds per message posted
	WeightReaction          WeightKey = "reaction"            // seconds per reaction added
	WeightDesktopDayMinutes WeightKey = "desktop_day_minutes" // minutes per desktop-active day
	WeightMobileDayMinutes  WeightKey = "mobile_day_minutes"  // minutes per mobile-active day
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Pipeline stages in execution order.
const (
	StageResolveMode     Stage = "resolve_mode"
	StageDateRange       Stage = "date_range"
	StageFetchActivity   Stage = "fetch_activity"
	StageFetchCodingTime Stage = "fetch_coding_time"
	StageEstimate        Stage = "estimate"
	StageCompare         Stage = "compare"
)

// Relative range tokens understood by the analytics endpoint.
const (
	Last30DaysToken = "30d"
	AllTimeToken    = "all"
)

// SecondsPerMinute converts the per-day minute weights into seconds.
const SecondsPerMinute = 60

// AllWeightKeys lists weight keys in formula order.
var AllWeightKeys = []WeightKey{WeightMessage, WeightReaction, WeightDesktopDayMinutes, WeightMobileDayMinutes}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
}

// ValidReportingModes lists all valid reporting modes.
var ValidReportingModes = map[ReportingMode]struct{}{
	Last30DaysMode: {},
	LastYearMode:   {},
	AllTimeMode:    {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// CodingTimeRange returns the range keyword the coding-time service expects for the mode.
func (m ReportingMode) CodingTimeRange() string {
	switch m {
	case LastYearMode:
		return "last_year"
	case AllTimeMode:
		return "all_time"
	default:
		return "last_30_days"
	}
}

// Label returns a short human-readable name for the mode.
func (m ReportingMode) Label() string {
	switch m {
	case LastYearMode:
		return "Last year"
	case AllTimeMode:
		return "All time"
	default:
		return "Last 30 days"
	}
}

// GetDefaultWeights returns the canonical weight table for the time-cost estimator.
// Earlier calibrations used different numbers, so callers treat these as overridable defaults.
func GetDefaultWeights() map[WeightKey]float64 {
	return map[WeightKey]float64{
		WeightMessage:           50,
		WeightReaction:          12,
		WeightDesktopDayMinutes: 35,
		WeightMobileDayMinutes:  30,
	}
}
