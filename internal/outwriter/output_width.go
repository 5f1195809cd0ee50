package outwriter

import (
	"os"

	"github.com/huangsam/shiptalkers/internal/contract"
	"golang.org/x/term"
)

// getMaxValueWidth calculates the maximum width for the value column in table output
// based on terminal width.
func getMaxValueWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Field column plus borders and padding
	available := termWidth - 30
	if available < 20 {
		return 20
	}
	if available > 100 {
		return 100
	}
	return available
}
