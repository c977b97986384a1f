package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/streams-chart-etl/internal/adapter/http"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on an interval and serve charts, data and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cleanup, err := a.buildPipeline(nil)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := httpadapter.NewServer(a.cfg.HTTPAddr, p, p, a.cfg.OutputDir, a.logger)

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.Go(func() error {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			eg.Go(func() error {
				return p.RunEvery(ctx, a.cfg.Interval)
			})
			eg.Go(func() error {
				<-ctx.Done()
				a.logger.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("http server shutdown error", "error", err)
				}
				return nil
			})

			err = eg.Wait()
			a.logger.Info("shutdown complete")
			return err
		},
	}
	cmd.Flags().String("http-addr", "", "listen address (default :8080)")
	cmd.Flags().Duration("interval", 0, "time between runs (default 24h)")
	cmd.Flags().Duration("shutdown-timeout", 0, "graceful shutdown limit (default 10s)")
	return cmd
}
