package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var voteCmd = &cobra.Command{
	Use:   "vote <caseId>",
	Short: "Cast a verifier vote on a pending case",
	Example: `  curachain vote CASE0001 --approve
  curachain vote CASE0001 --approve=false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		approve, _ := cmd.Flags().GetBool("approve")
		rc, err := client().Vote(cmd.Context(), args[0], approve)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rc, func(w io.Writer) {
			fmt.Fprintf(w, "Vote recorded on %s: %d yes / %d no, status %s\n", args[0], rc.Case.YesVotes, rc.Case.NoVotes, rc.Case.Status)
		})
	},
}

var donateCmd = &cobra.Command{
	Use:   "donate <caseId>",
	Short: "Donate to a verified case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetUint64("amount")
		rc, err := client().Donate(cmd.Context(), args[0], amount)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rc, func(w io.Writer) {
			fmt.Fprintf(w, "Donated %d to %s: %d / %d raised\n", amount, args[0], rc.Case.AmountRaised, rc.Case.AmountNeeded)
			if rc.Case.FullyFunded() {
				fmt.Fprintln(w, "Case is fully funded.")
			}
		})
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <caseId>",
	Short: "Release escrowed funds to a facility (administrator)",
	Example: `  V1=$(curachain token verifier-1 --role verifier --release CASE0001)
  curachain release CASE0001 --facility st-mary --cosigner $V1 --cosigner $V2 --cosigner $V3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facility, _ := cmd.Flags().GetString("facility")
		cosigners, _ := cmd.Flags().GetStringArray("cosigner")
		rc, err := client().Release(cmd.Context(), args[0], facility, cosigners)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rc, func(w io.Writer) {
			fmt.Fprintf(w, "Released %d from %s to %s\n", rc.Amount, args[0], facility)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := client().Stats(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), s, func(w io.Writer) {
			fmt.Fprintf(w, "Cases submitted: %d\n", s.TotalCasesSubmitted)
			fmt.Fprintf(w, "Open: %d (pending %d, verified %d, rejected %d)\n", s.ActiveCases, s.PendingCases, s.VerifiedCases, s.RejectedCases)
			fmt.Fprintf(w, "Fully funded: %d, released: %d\n", s.FullyFundedCases, s.ReleasedCases)
			fmt.Fprintf(w, "Total raised: %d\n", s.TotalRaised)
			fmt.Fprintf(w, "Verifiers: %d active of %d\n", s.ActiveVerifiers, s.TotalVerifiers)
			fmt.Fprintf(w, "Donors: %d\n", s.TotalDonors)
			fmt.Fprintf(w, "Ledger height: %d\n", s.LedgerHeight)
		})
	},
}

func init() {
	rootCmd.AddCommand(voteCmd, donateCmd, releaseCmd, statsCmd)
	voteCmd.Flags().Bool("approve", false, "Approve the case")
	donateCmd.Flags().Uint64("amount", 0, "Amount to donate")
	releaseCmd.Flags().String("facility", "", "Receiving facility identity")
	releaseCmd.Flags().StringArray("cosigner", nil, "Verifier token scoped with token --release (repeat three times)")
}
