package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/internal/history"
	"github.com/huangsam/shiptalkers/internal/logger"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// historyManager is the global run-history manager instance.
var historyManager contract.HistoryManager

// cpuProfile is the open CPU profile while profiling is active.
var cpuProfile *os.File

// startProfiling begins CPU profiling into <prefix>.cpu.prof.
func startProfiling() error {
	if !profile.Enabled || cpuProfile != nil {
		return nil
	}

	f, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	cpuProfile = f

	fmt.Fprintf(os.Stderr, "⏱️  Profiling to %s.cpu.prof and %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return nil
}

// stopProfiling flushes the CPU profile and writes a heap snapshot.
func stopProfiling() error {
	if cpuProfile == nil {
		return nil
	}

	pprof.StopCPUProfile()
	cpuErr := cpuProfile.Close()
	cpuProfile = nil

	heapPath := profile.Prefix + ".mem.prof"
	heap, err := os.Create(heapPath)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = heap.Close() }()

	if err := pprof.WriteHeapProfile(heap); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	if cpuErr != nil {
		return fmt.Errorf("could not close CPU profile: %w", cpuErr)
	}
	return nil
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "shiptalkers",
	Short:              "Compare how much a workspace member talks against how much they ship.",
	Long:               `Shiptalkers estimates time spent messaging from workspace analytics and compares it with tracked coding time.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig sets defaults and loads a .env file if present.
func initConfig() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	// Set environment variable prefix
	viper.SetEnvPrefix("SHIPTALKERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Set defaults in Viper
	viper.SetDefault("analytics-count", contract.DefaultAnalyticsCount)
	viper.SetDefault("lag-offset-days", contract.DefaultLagOffsetDays)
	viper.SetDefault("allow-all-time-analytics", "yes")
	viper.SetDefault("request-timeout", contract.DefaultRequestTimeout.String())
	viper.SetDefault("workspace-concurrency", contract.DefaultWorkspaceConcurrency)
	viper.SetDefault("send-start-date", "no")
	viper.SetDefault("default-avatar-url", contract.DefaultAvatarURL)
	viper.SetDefault("lookup-avatar", "yes")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")
	viper.SetDefault("listen", contract.DefaultListenAddr)
	viper.SetDefault("rate-limit", contract.DefaultRateLimit)
	viper.SetDefault("rate-burst", contract.DefaultRateBurst)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".shiptalkers") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// A missing file leaves defaults, env and flags in effect.
	}
	return nil
}

// loadRawInput merges defaults, file, env, and flags into input.
func loadRawInput() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// setupLogger installs the process-wide logger from the validated config.
func setupLogger() error {
	l, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.SetDefault(l)
	return nil
}

// sharedSetup unmarshals config and runs validation for commands that call upstreams.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	profilePrefix := viper.GetString("profile")
	if err := contract.ProcessProfilingConfig(profile, profilePrefix); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	if err := loadRawInput(); err != nil {
		return err
	}

	// This populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
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

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
