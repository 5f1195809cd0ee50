package core

import (
	"testing"

	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/assert"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		trigger  string
		expected schema.ReportingMode
	}{
		{"", schema.Last30DaysMode},
		{"how am I doing", schema.Last30DaysMode},
		{"one year", schema.LastYearMode},
		{"show me ONE YEAR of it", schema.LastYearMode},
		{"ALL TIME please", schema.AllTimeMode},
		{"all-time", schema.AllTimeMode},
		{"alltime", schema.AllTimeMode},
		{"all time, one year", schema.AllTimeMode},
		{"one year, all time", schema.AllTimeMode},
		{"oneyear", schema.Last30DaysMode},
		{"last year", schema.Last30DaysMode},
	}

	for _, tt := range tests {
		t.Run(tt.trigger, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveMode(tt.trigger))
		})
	}
}

func FuzzResolveMode(f *testing.F) {
	f.Add("one year")
	f.Add("all time")
	f.Add("")
	f.Fuzz(func(t *testing.T, trigger string) {
		mode := ResolveMode(trigger)
		_, ok := schema.ValidReportingModes[mode]
		assert.True(t, ok, "unexpected mode %q for %q", mode, trigger)
	})
}
