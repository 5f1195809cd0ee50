package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/history"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup validates history settings and opens the store.
func historySetup() error {
	if err := loadRawInput(); err != nil {
		return err
	}
	if err := contract.ProcessHistoryConfig(cfg, input); err != nil {
		return err
	}
	if err := setupLogger(); err != nil {
		return err
	}
	if err := history.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	historyManager = history.Manager
	return nil
}

// historyConfigSetup validates history settings without opening the store.
func historyConfigSetup() error {
	if err := loadRawInput(); err != nil {
		return err
	}
	return contract.ProcessHistoryConfig(cfg, input)
}

// historyCmd is the parent for run-history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of report runs.",
	Long: `Inspect and maintain the record of report runs.

Every report run is recorded with its mode, outcome, and failed stage so that
failures can be reviewed later. The backend is chosen with --history-backend.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// historyStatusCmd shows run-history statistics.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run-history statistics.",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		status, err := historyManager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Cannot read history status", err)
		}
		if err := history.PrintHistoryStatus(os.Stdout, status); err != nil {
			contract.LogFatal("Cannot print history status", err)
		}
	},
}

// historyExportCmd writes all runs to a parquet file.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report runs to a parquet file.",
	Long: `Export every recorded report run to <output-file>.report_runs.parquet.

The --output-file flag is required.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.ExecuteHistoryExport(os.Stdout, historyManager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Cannot export history", err)
		}
	},
}

// historyClearCmd removes all recorded runs.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded report runs.",
	Long: `Delete the run history for the configured backend.

For sqlite the database file is removed. For mysql and postgresql the runs
table is dropped.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historyConfigSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := ""
		if cfg.HistoryBackend == schema.SQLiteBackend {
			dbFilePath = cfg.HistoryDBConnect
			if dbFilePath == "" {
				dbFilePath = history.GetHistoryDBFilePath()
			}
		}
		if err := history.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Cannot clear history", err)
		}
		fmt.Printf("🗑️  Cleared %s history\n", cfg.HistoryBackend)
	},
}

// historyMigrateCmd applies schema migrations to the history database.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply history database migrations.",
	Long: `Apply schema migrations to the run-history database.

By default all pending migrations are applied. Use --target-version to migrate
to a specific version, or 0 to roll everything back.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historyConfigSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		msg, err := history.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version"))
		if err != nil {
			contract.LogFatal("Cannot migrate history", err)
		}
		fmt.Println(msg)
	},
}
