package cmd

import (
	"strings"

	"github.com/huangsam/shiptalkers/core"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// reportCmd builds a shipper/talker report for one workspace member.
var reportCmd = &cobra.Command{
	Use:   "report <username> [trigger...]",
	Short: "Compare a member's estimated messaging time with their coding time.",
	Long: `Fetch messaging analytics for a workspace member, estimate how long they spent
talking, and compare that with the coding time tracked for them.

The reporting window is chosen from the trigger text. Any mention of "all time"
selects all-time totals; everything else selects the last year.

Examples:
  shiptalkers report orpheus
  shiptalkers report orpheus all time
  shiptalkers report orpheus --trigger "how am I doing all-time" --output json`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		trigger := viper.GetString("trigger")
		if trigger == "" && len(args) > 1 {
			trigger = strings.Join(args[1:], " ")
		}
		req := schema.ReportRequest{
			Username:  strings.TrimSpace(args[0]),
			Trigger:   trigger,
			AvatarURL: viper.GetString("avatar-url"),
		}
		if err := core.ExecuteReport(rootCtx, cfg, historyManager, req); err != nil {
			contract.LogFatal(core.UserMessage(err), err)
		}
	},
}
