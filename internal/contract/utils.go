package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/shiptalkers/internal/logger"
	"github.com/huangsam/shiptalkers/schema"
	"go.uber.org/zap"
)

// Color variables for console output.
var (
	ShiptalkerColor = color.New(color.FgRed, color.Bold) // more messaging than coding
	BalancedColor   = color.New(color.FgYellow)          // dead even
	ShipperColor    = color.New(color.FgGreen, color.Bold)
)

// GetColorLabel returns a colored verdict label for console output (table).
// It uses schema.GetVerdictLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(percentage int64) string {
	text := schema.GetVerdictLabel(percentage)

	switch text {
	case schema.ShiptalkerLabel:
		return ShiptalkerColor.Sprint(text)
	case schema.ShipperLabel:
		return ShipperColor.Sprint(text)
	default:
		return BalancedColor.Sprint(text)
	}
}

// FormatPercentage renders a signed percentage such as "+12%" or "-40%".
func FormatPercentage(percentage int64) string {
	if percentage > 0 {
		return fmt.Sprintf("+%d%%", percentage)
	}
	return fmt.Sprintf("%d%%", percentage)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Default().Fatal(msg, zap.Error(err))
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	logger.Default().Warn(msg, zap.Error(err))
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".shiptalkers_history.db"
	}
	return filepath.Join(homeDir, ".shiptalkers_history.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// TruncateText shortens s to maxWidth runes with an ellipsis suffix.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}
