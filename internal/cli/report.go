package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/streams-chart-etl/internal/chart"
	"github.com/couchcryptid/streams-chart-etl/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print statistics and re-render charts from the stored table without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			snap, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", store.Location(), err)
			}
			preview, err := store.Preview(ctx, a.cfg.PreviewRows)
			if err != nil {
				return fmt.Errorf("preview %s: %w", store.Location(), err)
			}

			out := cmd.OutOrStdout()
			printer := report.NewPrinter(out)
			printer.Preview(preview)
			printer.Summary(snap.Songs)

			paths, err := chart.NewRenderer(a.cfg.OutputDir, a.logger).Render(ctx, snap.Songs)
			for _, path := range paths {
				_, _ = fmt.Fprintf(out, "Chart saved: %s\n", path)
			}
			return err
		},
	}
}
