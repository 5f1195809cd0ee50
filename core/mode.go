package core

import (
	"strings"

	"github.com/huangsam/shiptalkers/schema"
)

// allTimeSynonyms are phrases that select AllTime. Checked before oneYearPhrase.
var allTimeSynonyms = []string{"all time", "all-time", "alltime"}

const oneYearPhrase = "one year"

// ResolveMode maps free-form trigger text to a reporting mode.
// It never fails: anything unrecognized falls through to Last30Days.
func ResolveMode(trigger string) schema.ReportingMode {
	text := strings.ToLower(trigger)
	for _, synonym := range allTimeSynonyms {
		if strings.Contains(text, synonym) {
			return schema.AllTimeMode
		}
	}
	if strings.Contains(text, oneYearPhrase) {
		return schema.LastYearMode
	}
	return schema.Last30DaysMode
}
