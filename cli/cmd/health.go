package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query node health summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := client().Health(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), health, func(w io.Writer) {
			m := health.Metrics
			fmt.Fprintf(w, "Node Health: %s\n", health.Status)
			fmt.Fprintf(w, "Uptime: %ds\n", m.UptimeSeconds)
			fmt.Fprintf(w, "Ledger Height: %d\n", m.LedgerHeight)
			fmt.Fprintf(w, "Active Verifiers: %d\n", m.ActiveVerifiers)
			fmt.Fprintf(w, "Open Cases: %d\n", m.OpenCases)
			fmt.Fprintf(w, "CPU Load: %.2f%%\n", m.CPULoadPercent)
			fmt.Fprintf(w, "Memory Usage: %.2f MB\n", m.MemoryMB)
			fmt.Fprintf(w, "Disk Free: %.2f MB\n", m.DiskFreeMB)
			fmt.Fprintf(w, "Last Commit: %s\n", m.LastCommitTime)
		})
	},
}

var livenessCmd = &cobra.Command{
	Use:   "liveness",
	Short: "Check node liveness",
	RunE: func(cmd *cobra.Command, args []string) error {
		alive, err := client().Liveness(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Liveness: %v\n", alive)
		return nil
	},
}

var readinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Check node readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		ready, err := client().Readiness(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Readiness: %v\n", ready)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(livenessCmd)
	rootCmd.AddCommand(readinessCmd)
}
