// Package main times the shiptalkers CLI end to end against a live workspace.
// Each member is reported in every mode, once per history backend, so the
// overhead of run tracking shows up next to the upstream latency.
//
// Prerequisites:
//   - shiptalkers binary installed and available in PATH
//   - SHIPTALKERS_WORKSPACE, SHIPTALKERS_XOXC, SHIPTALKERS_XOXD and
//     SHIPTALKERS_CODING_TIME_ENDPOINT exported
//
// Usage: go run benchmark/main.go <username> [username...]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the timings for one member, mode and backend.
type BenchmarkResult struct {
	Username  string
	Mode      string
	Backend   string
	ColdTime  string
	WarmTime  string
	Successes int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout   time.Duration
	Runs      int
	Usernames []string
	Backends  []string
	Triggers  map[string]string // mode name -> trigger text
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s <username> [username...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Timeout:   time.Minute,
		Runs:      4,
		Usernames: os.Args[1:],
		Backends:  []string{"none", "sqlite"},
		Triggers: map[string]string{
			"last_year": "how am I doing",
			"all_time":  "all time",
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies the binary and credentials are available.
func checkPrerequisites() error {
	if _, err := exec.LookPath("shiptalkers"); err != nil {
		return fmt.Errorf("shiptalkers binary not found in PATH")
	}
	for _, key := range []string{"SHIPTALKERS_WORKSPACE", "SHIPTALKERS_XOXC", "SHIPTALKERS_XOXD", "SHIPTALKERS_CODING_TIME_ENDPOINT"} {
		if os.Getenv(key) == "" {
			return fmt.Errorf("%s is not set", key)
		}
	}
	return nil
}

// runBenchmarks executes every member, mode and backend combination.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d members, %v timeout, %d runs per case\n",
		len(config.Usernames), config.Timeout, config.Runs)

	for _, username := range config.Usernames {
		for mode, trigger := range config.Triggers {
			for _, backend := range config.Backends {
				results = append(results, runBenchmarkCase(config, username, mode, trigger, backend))
			}
		}
	}
	return results
}

// runBenchmarkCase runs one combination several times and summarizes it.
func runBenchmarkCase(config BenchmarkConfig, username, mode, trigger, backend string) BenchmarkResult {
	fmt.Printf("Reporting @%s (%s, history=%s)\n", username, mode, backend)

	args := []string{"report", username, "--trigger", trigger, "--history-backend", backend, "--output", "text", "--lookup-avatar", "no"}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		if elapsed, ok := runOnce(config.Timeout, args); ok {
			times = append(times, elapsed)
		}
	}

	result := BenchmarkResult{
		Username:  username,
		Mode:      mode,
		Backend:   backend,
		ColdTime:  "FAILED",
		WarmTime:  "FAILED",
		Successes: len(times),
	}
	if len(times) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}

	fmt.Printf("  Cold: %s, Warm average: %s, Successes: %d/%d\n", result.ColdTime, result.WarmTime, result.Successes, config.Runs)
	return result
}

// runOnce executes the CLI and reports elapsed seconds when it succeeds.
func runOnce(timeout time.Duration, args []string) (float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	output, err := exec.CommandContext(ctx, "shiptalkers", args...).CombinedOutput()
	if err != nil || !isSuccess(output) {
		return 0, false
	}
	return time.Since(start).Seconds(), true
}

// isSuccess checks if command output indicates a completed report.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Report completed in") && strings.Contains(outputStr, "Run ID:")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/shiptalkers_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"username", "mode", "history_backend", "cold_time", "warm_avg", "successes"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		if err := writer.Write([]string{r.Username, r.Mode, r.Backend, r.ColdTime, r.WarmTime, fmt.Sprint(r.Successes)}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  @%-16s %-10s %-7s Cold: %s, Warm: %s\n", r.Username, r.Mode, r.Backend, r.ColdTime, r.WarmTime)
	}
}
