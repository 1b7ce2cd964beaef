package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"curachain/cli/api"

	"github.com/spf13/cobra"
)

var (
	nodeURL string
	token   string
	output  string
)

var rootCmd = &cobra.Command{
	Use:           "curachain",
	Short:         "CuraChain medical crowdfunding CLI",
	Long:          "A command-line tool for submitting, verifying, funding and releasing medical cases on a CuraChain node.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&nodeURL, "node", envOr("CURACHAIN_NODE", api.DefaultNode), "Node base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CURACHAIN_TOKEN"), "Bearer token identifying the caller")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "plain", "Output format: plain|json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func client() *api.Client {
	return api.NewClient(nodeURL, token)
}

// render prints v as indented JSON when --output json, else calls plain.
func render(w io.Writer, v any, plain func(w io.Writer)) error {
	switch output {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "plain", "":
		plain(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
