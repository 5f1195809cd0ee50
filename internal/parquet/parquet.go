// Package parquet provides data structures and functions for exporting run
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/shiptalkers/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRun represents a single report run with metadata.
// This struct maps to the shiptalkers_report_runs database table.
type ReportRun struct {
	// RunID is the store-assigned identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID correlates the row with log lines for the same run
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Username is the member the report was requested for
	Username string `parquet:"username,snappy"`

	// Mode is the resolved reporting mode
	Mode string `parquet:"mode,snappy"`

	// Outcome is "ok" or the failure kind (nullable while running)
	Outcome *string `parquet:"outcome,optional,snappy"`

	// FailedStage names the stage that failed (nullable)
	FailedStage *string `parquet:"failed_stage,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ConvertRunRecords maps store records to Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []ReportRun {
	rows := make([]ReportRun, 0, len(records))
	for _, r := range records {
		rows = append(rows, ReportRun{
			RunID:         r.RunID,
			RunUUID:       r.RunUUID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			Username:      r.Username,
			Mode:          r.Mode,
			Outcome:       r.Outcome,
			FailedStage:   r.FailedStage,
			ConfigParams:  r.ConfigParams,
		})
	}
	return rows
}

// WriteRunsParquet writes a slice of ReportRun structs to a Parquet file.
func WriteRunsParquet(data []ReportRun, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the ReportRun struct tags
	writer := parquet.NewGenericWriter[ReportRun](file)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
