package history

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/shiptalkers/schema"
	"github.com/olekukonko/tablewriter"
)

// PrintHistoryStatus prints run-history status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) error {
	if _, err := fmt.Fprintf(w, "History Backend: %s\nConnected: %t\n", status.Backend, status.Connected); err != nil {
		return err
	}
	if !status.Connected {
		return nil
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Metric", "Value"})

	data := [][]string{
		{"Total Runs", strconv.Itoa(status.TotalRuns)},
		{"Failed Runs", strconv.Itoa(status.FailedRuns)},
	}
	if status.TotalRuns > 0 {
		data = append(data,
			[]string{"Last Run ID", strconv.FormatInt(status.LastRunID, 10)},
			[]string{"Last Run", status.LastRunTime.Local().Format("2006-01-02 15:04:05")},
			[]string{"Oldest Run", status.OldestRunTime.Local().Format("2006-01-02 15:04:05")},
		)
	}
	for _, name := range slices.Sorted(maps.Keys(status.TableSizes)) {
		data = append(data, []string{"Rows in " + name, strconv.FormatInt(status.TableSizes[name], 10)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
