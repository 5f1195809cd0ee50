package core

import (
	"cloud.google.com/go/civil"
	"github.com/huangsam/shiptalkers/schema"
)

// lastYearEndOffsetDays is how far before today a LastYear window ends.
const lastYearEndOffsetDays = 7

// ComputeDateRange maps a mode to the range sent to the analytics endpoint.
//
// LastYear ends one week before today and starts one calendar year before that.
// Both ends then move lagDays earlier; the lag is an empirical correction for
// upstream reporting delay and is configured rather than derived.
func ComputeDateRange(mode schema.ReportingMode, today civil.Date, lagDays int) schema.DateRange {
	switch mode {
	case schema.LastYearMode:
		end := today.AddDays(-lastYearEndOffsetDays)
		start := minusOneYear(end)
		return schema.DateRange{
			Start: start.AddDays(-lagDays),
			End:   end.AddDays(-lagDays),
		}
	case schema.AllTimeMode:
		return schema.DateRange{Token: schema.AllTimeToken}
	default:
		return schema.DateRange{Token: schema.Last30DaysToken}
	}
}

// AnalyticsDateRange is ComputeDateRange with the all-time policy applied.
// When unbounded analytics queries are disallowed, AllTime uses the LastYear
// window and downgraded is true. Coding time keeps the all_time range.
func AnalyticsDateRange(mode schema.ReportingMode, today civil.Date, lagDays int, allowAllTime bool) (dateRange schema.DateRange, downgraded bool) {
	if mode == schema.AllTimeMode && !allowAllTime {
		return ComputeDateRange(schema.LastYearMode, today, lagDays), true
	}
	return ComputeDateRange(mode, today, lagDays), false
}

// minusOneYear steps back one calendar year, clamping Feb 29 to Feb 28.
func minusOneYear(d civil.Date) civil.Date {
	prev := civil.Date{Year: d.Year - 1, Month: d.Month, Day: d.Day}
	for !prev.IsValid() {
		prev.Day--
	}
	return prev
}
