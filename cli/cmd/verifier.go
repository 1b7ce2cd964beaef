package cmd

import (
	"fmt"
	"io"

	"curachain/core/crowdfund"

	"github.com/spf13/cobra"
)

var verifierCmd = &cobra.Command{
	Use:   "verifier",
	Short: "Manage the verifier registry (administrator)",
}

func verifierOpCmd(op crowdfund.VerifierOp, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(op) + " <identity>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := client().Verifier(cmd.Context(), args[0], op)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), rc, func(w io.Writer) {
				fmt.Fprintf(w, "Verifier %s active=%v (seq %d)\n", rc.Verifier.Identity, rc.Verifier.IsActive, rc.Seq)
			})
		},
	}
}

var verifierListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		activeOnly, _ := cmd.Flags().GetBool("active")
		list, err := client().ListVerifiers(cmd.Context(), activeOnly)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), list, func(w io.Writer) {
			for _, v := range list {
				state := "inactive"
				if v.IsActive {
					state = "active"
				}
				fmt.Fprintf(w, "%s  %s\n", v.Identity, state)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(verifierCmd)
	verifierCmd.AddCommand(
		verifierOpCmd(crowdfund.VerifierAdd, "Add or reactivate a verifier"),
		verifierOpCmd(crowdfund.VerifierRemove, "Deactivate a verifier"),
		verifierListCmd,
	)
	verifierListCmd.Flags().Bool("active", false, "Only active verifiers")
}
