package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/app"
	"github.com/zjrosen/implbridge/internal/presentation"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Load every implementors fragment under the doc root",
	Long: `Load every fragment under <doc root>/implementors through its page's
registration bridge and merge the results into the index.

bridge.attach decides when the index attaches: "late" (default) holds every
table in its bridge until the scan is done, "early" forwards each one as it
is read. With the persist-index flag on, the merged index is saved to the
store.

Examples:
  implbridge scan
  implbridge scan --doc-root ../serde/target/doc
  implbridge scan --json | jq '.pages[].trait'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		result, err := a.Load(cmd.Context())
		if err != nil {
			return err
		}
		dto := scanResult(a, result)
		if scanJSON {
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatScanResult(dto)
		}
		writeScanSummary(cmd.OutOrStdout(), dto)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the result as JSON")
}

func scanResult(a *app.App, result app.LoadResult) presentation.ScanResultDTO {
	dto := presentation.ScanResultDTO{
		DocRoot: result.DocRoot,
		Attach:  result.Attach,
		Pages:   make([]presentation.PageSummaryDTO, 0, len(result.Pages)),
		Pending: presentation.FromDiagnostics(a.Unflushed()),
		Stats:   presentation.FromStats(a.Hub().Stats()),
	}
	for _, page := range result.Pages {
		dto.Pages = append(dto.Pages, presentation.PageSummaryDTO{
			Trait:        page.Trait,
			Crates:       page.Table.Len(),
			Implementors: page.Table.Count(),
			Deliveries:   a.Index().Deliveries(page.Trait),
		})
	}
	for _, err := range result.Failed {
		dto.Failed = append(dto.Failed, err.Error())
	}
	return dto
}

func writeScanSummary(w io.Writer, dto presentation.ScanResultDTO) {
	width := 0
	for _, p := range dto.Pages {
		width = max(width, len(p.Trait))
	}
	for _, p := range dto.Pages {
		_, _ = fmt.Fprintf(w, "%-*s  %3d crates  %4d implementors\n", width, p.Trait, p.Crates, p.Implementors)
	}
	_, _ = fmt.Fprintf(w, "\n%d pages from %s (attach %s): %d submitted, %d delivered, %d overwritten\n",
		len(dto.Pages), dto.DocRoot, dto.Attach,
		dto.Stats.Submitted, dto.Stats.Delivered, dto.Stats.Overwritten)
	for _, f := range dto.Failed {
		_, _ = fmt.Fprintf(w, "skipped: %s\n", f)
	}
	for _, p := range dto.Pending {
		_, _ = fmt.Fprintf(w, "never delivered: %s (%d pending, %s)\n", p.Page, p.Pending, p.Policy)
	}
}
