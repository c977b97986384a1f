package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
	"github.com/couchcryptid/streams-chart-etl/internal/report"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the stored table against the cleaning guarantees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			snap, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load %s: %w", store.Location(), err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "=== %s: %d rows ===\n\n", store.Location(), len(snap.Songs))
			failed := report.NewPrinter(out).Checks(domain.VerifySnapshot(snap))
			if failed > 0 {
				_, _ = fmt.Fprintln(out, "\nVerification FAILED.")
				return fmt.Errorf("%d checks failed", failed)
			}
			_, _ = fmt.Fprintln(out, "\nAll checks passed.")
			return nil
		},
	}
}
