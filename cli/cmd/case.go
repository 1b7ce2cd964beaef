package cmd

import (
	"errors"
	"fmt"
	"io"

	"curachain/core/crowdfund"

	"github.com/spf13/cobra"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Case operations (submit, get, list, close)",
}

var caseSubmitCmd = &cobra.Command{
	Use:     "submit",
	Short:   "Submit a medical case as the token's patient",
	Example: `  curachain case submit --description "hip replacement" --amount 25000 --records ipfs://Qm...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		amount, _ := cmd.Flags().GetUint64("amount")
		records, _ := cmd.Flags().GetString("records")
		if desc == "" || records == "" {
			return errors.New("--description and --records are required")
		}
		rc, err := client().SubmitCase(cmd.Context(), desc, amount, records)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rc, func(w io.Writer) {
			fmt.Fprintf(w, "Case %s submitted (seq %d)\n", rc.CaseID, rc.Seq)
		})
	},
}

var caseGetCmd = &cobra.Command{
	Use:   "get <caseId>",
	Short: "Show one case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := client().GetCase(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rec, func(w io.Writer) {
			printCase(w, rec)
		})
	},
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		cases, err := client().ListCases(cmd.Context(), status)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cases, func(w io.Writer) {
			if len(cases) == 0 {
				fmt.Fprintln(w, "No cases.")
				return
			}
			for _, c := range cases {
				fmt.Fprintf(w, "%s  %-22s %d/%d  %s\n", c.CaseID, c.Status, c.AmountRaised, c.AmountNeeded, c.Patient)
			}
		})
	},
}

var caseCloseCmd = &cobra.Command{
	Use:   "close <caseId>",
	Short: "Close your rejected case so you can submit again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := client().CloseCase(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rc, func(w io.Writer) {
			fmt.Fprintf(w, "Case %s closed (seq %d)\n", args[0], rc.Seq)
		})
	},
}

func printCase(w io.Writer, rec crowdfund.CaseRecord) {
	fmt.Fprintf(w, "Case: %s\n", rec.CaseID)
	fmt.Fprintf(w, "Patient: %s\n", rec.Patient)
	fmt.Fprintf(w, "Status: %s\n", rec.Status)
	fmt.Fprintf(w, "Description: %s\n", rec.Description)
	fmt.Fprintf(w, "Records: %s\n", rec.RecordsLink)
	fmt.Fprintf(w, "Funding: %d / %d (%.1f%%)\n", rec.AmountRaised, rec.AmountNeeded, crowdfund.FundingPercentage(rec.AmountRaised, rec.AmountNeeded))
	fmt.Fprintf(w, "Votes: %d yes / %d no\n", rec.YesVotes, rec.NoVotes)
	if rec.FundsReleased {
		fmt.Fprintf(w, "Released to: %s\n", rec.Facility)
	}
	if rec.Closed {
		fmt.Fprintln(w, "Closed: yes")
	}
}

func init() {
	rootCmd.AddCommand(caseCmd)
	caseCmd.AddCommand(caseSubmitCmd, caseGetCmd, caseListCmd, caseCloseCmd)
	caseSubmitCmd.Flags().String("description", "", "Case description (required)")
	caseSubmitCmd.Flags().Uint64("amount", 0, "Amount needed")
	caseSubmitCmd.Flags().String("records", "", "Link to the medical records (required)")
	caseListCmd.Flags().String("status", "", "Only cases in this status (pending_verification|verified|rejected)")
}
