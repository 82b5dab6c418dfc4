package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/facts"
)

var emitCmd = &cobra.Command{
	Use:   "emit <facts-file>...",
	Short: "Write implementors fragments from facts files",
	Long: `Read generation-time facts (YAML, or JSONC for any other extension),
build each trait's implementors table and write its fragment under the doc
root. Crates named in a facts file replace their entries in an existing
fragment; other crates are kept.

A facts file looks like:

  trait: syn::parse::Parse
  crates:
    - name: syn
      implementors:
        - text: "<code>impl Parse for Ident</code>"
          types: ["syn::Ident"]

Examples:
  implbridge emit facts/parse.yaml
  implbridge emit facts/*.jsonc --doc-root target/doc`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make([]facts.File, 0, len(args))
		for _, path := range args {
			f, err := facts.ReadFile(path)
			if err != nil {
				return err
			}
			files = append(files, f)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		for _, f := range files {
			result, err := a.Emit(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("emitting %s: %w", f.Trait, err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d crates, %d implementors -> %s\n",
				result.Trait, result.Table.Len(), result.Table.Count(), result.Path); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(emitCmd)
}
