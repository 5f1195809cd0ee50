package outwriter

import (
	"fmt"
	"os"

	"github.com/huangsam/shiptalkers/schema"
)

// LogReportHeader prints a concise, 2-line header before a report runs.
// It goes to stderr so structured output on stdout stays parseable.
func LogReportHeader(workspace, username string, mode schema.ReportingMode, dateRange schema.DateRange) {
	fmt.Fprintf(os.Stderr, "🔎 Workspace: %s (Member: @%s)\n", workspace, username)
	fmt.Fprintf(os.Stderr, "📅 Range: %s (%s)\n", mode.Label(), dateRange)
}
