package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once: fetch, clean, store, report and plot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cleanup, err := a.buildPipeline(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			for _, path := range res.Charts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Chart saved: %s\n", path)
			}
			return nil
		},
	}
}
