package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/presentation"
)

var typesJSON bool

var typesCmd = &cobra.Command{
	Use:   "types <type-path>",
	Short: "List the traits a type implements",
	Long: `List every trait whose implementors include the given type, matched on
its qualified path.

Examples:
  implbridge types syn::Ident
  implbridge types alloc::string::String --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if _, err := a.Load(cmd.Context()); err != nil {
			return err
		}

		dtos := presentation.FromListings(a.Index().TraitsImplementedBy(args[0]))
		if typesJSON {
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatJSON(dtos)
		}
		if len(dtos) == 0 {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "no implementations found for %s\n", args[0])
			return err
		}
		for _, d := range dtos {
			marker := ""
			if d.Synthetic {
				marker = " (auto)"
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]%s\n    %s\n", d.Trait, d.Crate, marker, d.Text); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
	typesCmd.Flags().BoolVar(&typesJSON, "json", false, "print the result as JSON")
}
