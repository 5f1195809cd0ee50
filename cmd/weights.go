package cmd

import (
	"github.com/huangsam/shiptalkers/core"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/spf13/cobra"
)

// weightsCmd prints the estimator weights without calling any upstream.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the messaging-time estimator weights.",
	Long: `Display the weights used to turn message analytics into an estimated duration.

Values overridden in the config file under "weights" are marked with an asterisk.
No credentials are required.`,
	PreRunE: displaySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeights(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot print weights", err)
		}
	},
}

// displaySetupWrapper validates only output and weight settings.
func displaySetupWrapper(_ *cobra.Command, _ []string) error {
	if err := loadRawInput(); err != nil {
		return err
	}
	return contract.ProcessDisplayConfig(cfg, input)
}
