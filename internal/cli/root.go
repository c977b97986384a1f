// Package cli provides the command-line interface for the streams chart ETL.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/streams-chart-etl/internal/config"
	"github.com/couchcryptid/streams-chart-etl/internal/observability"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile   string
	cfg       *config.Config
	logger    *slog.Logger
	logOutput io.Writer
}

// NewRootCmd creates the etl command tree. Logs go to stderr.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Stderr)
}

func newRootCmd(logOutput io.Writer) *cobra.Command {
	a := &app{logOutput: logOutput}
	run := newRunCmd(a)

	root := &cobra.Command{
		Use:   "etl",
		Short: "Scrape the most-streamed Spotify songs chart into a database and charts",
		Long: `etl downloads the Wikipedia list of most-streamed songs on Spotify,
cleans the first table on the page, replaces the destination table with it,
prints a short statistics report and renders three PNG charts.
Without a subcommand it behaves like "etl run".`,
		Args: cobra.NoArgs,
		RunE: run.RunE,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(a.logOutput, cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.String("source-url", "", "page holding the chart table")
	pf.String("user-agent", "", "User-Agent header for the page request")
	pf.Duration("fetch-timeout", 0, "page request timeout (default 30s)")
	pf.String("database-driver", "", "sqlite or postgres (default sqlite)")
	pf.String("database-path", "", "sqlite file or postgres DSN (default spotify_streams.db)")
	pf.String("table", "", "destination table (default most_streamed_spotify)")
	pf.Int("preview-rows", 0, "rows shown in the preview (default 5)")
	pf.String("output-dir", "", "directory for chart files (default .)")
	pf.Bool("drop-unparsed-streams", false, "drop rows whose stream count does not parse")
	pf.Bool("reject-header-collisions", false, "fail when two headers map to one column")
	pf.String("log-level", "", "debug, info, warn or error (default info)")
	pf.String("log-format", "", "json or text (default json)")
	pf.StringSlice("kafka-brokers", nil, "publish rows to these Kafka brokers")
	pf.String("kafka-topic", "", "Kafka topic (default spotify-most-streamed)")
	pf.String("snapshot-bucket", "", "GCS bucket for run artifacts")
	pf.String("snapshot-dir", "", "local directory for run artifacts")

	_ = root.RegisterFlagCompletionFunc("database-driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		run,
		newServeCmd(a),
		newReportCmd(a),
		newVerifyCmd(a),
		newRunsCmd(a),
		newMigrateCmd(a),
	)
	return root
}
