// Package cmd defines the command-line interface for shiptalkers.
package cmd

import (
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("workspace", "", "Workspace subdomain (e.g. hackclub for hackclub.slack.com)")
	rootCmd.PersistentFlags().String("xoxc", "", "Workspace session token (prefer SHIPTALKERS_XOXC)")
	rootCmd.PersistentFlags().String("xoxd", "", "URL-encoded d cookie value (prefer SHIPTALKERS_XOXD)")
	rootCmd.PersistentFlags().String("coding-time-endpoint", "", "Coding-time stats URL template with :id and :range placeholders")
	rootCmd.PersistentFlags().String("analytics-base-url", "", "Override for the analytics host (default https://{workspace}.slack.com)")
	rootCmd.PersistentFlags().String("profile-base-url", "", "Override for the profile API host (default https://slack.com)")
	rootCmd.PersistentFlags().Int("analytics-count", contract.DefaultAnalyticsCount, "Maximum member records requested per analytics query")
	rootCmd.PersistentFlags().Int("lag-offset-days", contract.DefaultLagOffsetDays, "Days subtracted from both ends of the last-year window")
	rootCmd.PersistentFlags().String("allow-all-time-analytics", "yes", "Query analytics with the all-time token (yes/no)")
	rootCmd.PersistentFlags().String("request-timeout", contract.DefaultRequestTimeout.String(), "Timeout per upstream call")
	rootCmd.PersistentFlags().Int("workspace-concurrency", contract.DefaultWorkspaceConcurrency, "Concurrent pipeline runs allowed per workspace")
	rootCmd.PersistentFlags().String("send-start-date", "no", "Send start_date to the coding-time service for explicit ranges (yes/no)")
	rootCmd.PersistentFlags().String("default-avatar-url", contract.DefaultAvatarURL, "Avatar used when none is supplied or found")
	rootCmd.PersistentFlags().String("lookup-avatar", "yes", "Look up the member's avatar from their profile (yes/no)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql history")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "Log destination (stderr by default; file paths are rotated)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().String("trigger", "", "Free-form request text that selects the reporting window")
	reportCmd.Flags().String("avatar-url", "", "Avatar URL to show on the report card")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address for the HTTP server")
	serveCmd.Flags().Float64("rate-limit", contract.DefaultRateLimit, "Requests per second allowed per client")
	serveCmd.Flags().Int("rate-burst", contract.DefaultRateBurst, "Burst size per client")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
