package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"curachain/core/auth"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <identity>",
	Short: "Issue a development token signed with the node's shared secret",
	Example: `  JWT_SECRET=... curachain token patient-1 --role patient --ttl 1h
  JWT_SECRET=... curachain token verifier-1 --role verifier --release CASE0001`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = os.Getenv("JWT_SECRET")
		}
		if secret == "" {
			return errors.New("--secret or JWT_SECRET is required")
		}
		issuer, _ := cmd.Flags().GetString("issuer")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		roles, _ := cmd.Flags().GetStringSlice("role")
		action := ""
		if caseID, _ := cmd.Flags().GetString("release"); caseID != "" {
			action = auth.ReleaseAction(caseID)
		}
		tok, err := auth.NewTokenIssuer([]byte(secret), issuer).IssueScoped(args[0], action, ttl, roles...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("secret", "", "Shared HS256 secret (defaults to JWT_SECRET)")
	tokenCmd.Flags().String("issuer", "curachain", "Token issuer")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	tokenCmd.Flags().StringSlice("role", nil, "Roles (admin, verifier, patient, donor)")
	tokenCmd.Flags().String("release", "", "Scope the token to co-signing the release of this case")
}
