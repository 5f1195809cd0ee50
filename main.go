// main is the entry point for the shiptalkers CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/shiptalkers/cmd"
	"github.com/huangsam/shiptalkers/internal/history"
	"github.com/huangsam/shiptalkers/internal/logger"
)

func main() {
	err := cmd.Execute()

	history.CloseHistory()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "⚠️", stopErr)
	}
	_ = logger.Default().Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
