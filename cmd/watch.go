package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/ui/watchview"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the doc root and show fragment loads live",
	Long: `Scan the doc root, then load fragments as they are rewritten (for
example while cargo doc runs) and show bridge activity and index changes
as they happen. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Subscribe before the initial load so its activity shows up too.
		model := watchview.New(ctx, a.DocRoot(), a.Activity(), a.Changes())

		if _, err := a.Load(ctx); err != nil {
			return err
		}

		watchErr := make(chan error, 1)
		go func() { watchErr <- a.Watch(ctx) }()

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("running watch view: %w", err)
		}

		cancel()
		if err := <-watchErr; err != nil {
			log.ErrorErr(log.CatApp, "Watcher stopped", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
