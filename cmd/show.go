package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/presentation"
	"github.com/zjrosen/implbridge/internal/render"
)

var (
	showFormat    string
	showFromStore bool
)

var showCmd = &cobra.Command{
	Use:   "show <trait>",
	Short: "Render the implementors section of a trait page",
	Long: `Render the implementors of one trait, grouped by crate, with
compiler-derived impls under "Auto implementors".

Formats: text, markdown, pretty (markdown through glamour), ansi (syntax
highlighted), json.

Examples:
  implbridge show core::marker::Send
  implbridge show serde::Serialize --format pretty
  implbridge show serde::Serialize --from-store --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trait := strings.TrimSpace(args[0])

		formatName := cfg.Render.Format
		if cmd.Flags().Changed("format") {
			formatName = showFormat
		}
		format, err := render.ParseFormat(formatName)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if showFromStore {
			if _, err := a.Restore(cmd.Context()); err != nil {
				return err
			}
		} else if _, err := a.Load(cmd.Context()); err != nil {
			return err
		}

		if format == render.FormatJSON {
			table, err := a.Index().Table(trait)
			if err != nil {
				return err
			}
			page := presentation.FromTable(trait, a.Index().Deliveries(trait), table)
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatPage(page)
		}

		out, err := a.Render(cmd.Context(), format, trait)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "", "output format: text, markdown, pretty, ansi, json (default: render.format)")
	showCmd.Flags().BoolVar(&showFromStore, "from-store", false, "read the saved index instead of scanning the doc root")
}
