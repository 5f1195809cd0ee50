package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// reportCSVHeader is the column order for CSV report output.
var reportCSVHeader = []string{
	"run_id",
	"mode",
	"date_range",
	"username",
	"display_name",
	"avatar_url",
	"coding_time_seconds",
	"messaging_time_estimate_seconds",
	"percentage_difference",
	"label",
}

// PrintReport outputs a report, dispatching based on the output format configured.
func PrintReport(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	successMsg := "Wrote text"
	switch cfg.Output {
	case schema.JSONOut:
		successMsg = "Wrote JSON"
	case schema.CSVOut:
		successMsg = "Wrote CSV"
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteReport(w, report, cfg, duration)
	}, successMsg)
}

// WriteReport writes a report to w in the configured format.
func WriteReport(w io.Writer, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, report); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	case schema.CSVOut:
		if err := writeCSVWithHeader(w, reportCSVHeader, func(cw *csv.Writer) error {
			return writeCSVReportRow(cw, report)
		}); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
		return nil
	default:
		return writeReportTable(w, report, cfg, duration)
	}
}

// writeCSVReportRow writes the single data row for a report.
func writeCSVReportRow(w *csv.Writer, report *schema.Report) error {
	card := schema.EnrichReportCard(report.Card)
	return w.Write([]string{
		report.RunID,
		string(report.Mode),
		report.Range.String(),
		card.Username,
		card.DisplayName,
		card.AvatarURL,
		strconv.FormatFloat(card.CodingTimeSeconds, 'f', -1, 64),
		strconv.FormatInt(card.MessagingTimeEstimateSeconds, 10),
		strconv.FormatInt(card.PercentageDifference, 10),
		card.Label,
	})
}

// writeReportTable renders the human-readable report card.
func writeReportTable(w io.Writer, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	card := schema.EnrichReportCard(report.Card)
	maxWidth := getMaxValueWidth(cfg)

	label := card.Label
	if cfg.UseColors {
		label = contract.GetColorLabel(card.PercentageDifference)
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Field", "Value"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignLeft
	})

	data := [][]string{
		{"Member", contract.TruncateText(fmt.Sprintf("%s (@%s)", card.DisplayName, card.Username), maxWidth)},
		{"Range", fmt.Sprintf("%s (%s)", report.Mode.Label(), report.Range)},
		{"Coding time", fmt.Sprintf("%s (%.0fs)", card.CodingTimeHuman, card.CodingTimeSeconds)},
		{"Messaging time (est.)", fmt.Sprintf("%s (%ds)", card.MessagingTimeHuman, card.MessagingTimeEstimateSeconds)},
		{"Difference", contract.FormatPercentage(card.PercentageDifference)},
		{"Verdict", label},
		{"Avatar", contract.TruncateText(card.AvatarURL, maxWidth)},
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, note := range report.Notes {
		if _, err := fmt.Fprintf(w, "Note: %s\n", note); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Report completed in %v. Run ID: %s\n", duration.Round(time.Millisecond), report.RunID); err != nil {
		return err
	}
	return nil
}
