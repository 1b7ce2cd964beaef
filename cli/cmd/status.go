package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query node status",
	Example: `  curachain status
  curachain status --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := client().Status(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), status, func(w io.Writer) {
			fmt.Fprintf(w, "Status: %s\nVersion: %s (api %s)\nLedger Height: %d\nHead: %s\n",
				status.Status, status.Version, status.APIVersion, status.LedgerHeight, status.HeadID)
			fmt.Fprintf(w, "Thresholds: participation %d%%, approval %d%%, rejection <%d%%\n",
				status.Thresholds.ParticipationPct, status.Thresholds.ApprovalPct, status.Thresholds.RejectionPct)
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
