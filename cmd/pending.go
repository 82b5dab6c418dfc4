package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/presentation"
)

var pendingJSON bool

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Report pages whose tables never reached the index",
	Long: `Scan the doc root without attaching the index and report every page
still holding submissions. This is what a page sees when the consumer never
registers: its tables stay parked in the bridge.

Examples:
  implbridge pending
  implbridge pending --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		pages, err := a.Submit(cmd.Context())
		if err != nil {
			return err
		}

		dtos := presentation.FromDiagnostics(a.Unflushed())
		if pendingJSON {
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatJSON(dtos)
		}
		for _, d := range dtos {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %d pending (%s)\n", d.Page, d.Pending, d.Policy); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d pages waiting for a consumer\n", len(dtos), pages)
		return err
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().BoolVar(&pendingJSON, "json", false, "print the result as JSON")
}
