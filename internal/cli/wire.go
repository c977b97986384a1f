package cli

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/streams-chart-etl/internal/adapter/htmltable"
	"github.com/couchcryptid/streams-chart-etl/internal/adapter/httpfetch"
	kafkaadapter "github.com/couchcryptid/streams-chart-etl/internal/adapter/kafka"
	"github.com/couchcryptid/streams-chart-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/streams-chart-etl/internal/adapter/objectstore/gcs"
	"github.com/couchcryptid/streams-chart-etl/internal/adapter/objectstore/local"
	"github.com/couchcryptid/streams-chart-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/streams-chart-etl/internal/chart"
	"github.com/couchcryptid/streams-chart-etl/internal/domain"
	"github.com/couchcryptid/streams-chart-etl/internal/observability"
	"github.com/couchcryptid/streams-chart-etl/internal/pipeline"
	"github.com/couchcryptid/streams-chart-etl/internal/report"
)

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// sharedMetrics registers the collectors once per process.
func sharedMetrics() *observability.Metrics {
	metricsOnce.Do(func() { metrics = observability.NewMetrics() })
	return metrics
}

func (a *app) openStore() (*sqlstore.Store, error) {
	return sqlstore.New(sqlstore.Config{
		Driver: a.cfg.DatabaseDriver,
		DSN:    a.cfg.DatabasePath,
		Table:  a.cfg.Table,
	}, a.logger)
}

func (a *app) archiver() pipeline.Archiver {
	switch {
	case a.cfg.SnapshotBucket != "":
		a.logger.Info("archiving to gcs", "bucket", a.cfg.SnapshotBucket)
		return objectstore.NewArchiver(gcs.New(a.cfg.SnapshotBucket), a.logger)
	case a.cfg.SnapshotDir != "":
		a.logger.Info("archiving to directory", "dir", a.cfg.SnapshotDir)
		return objectstore.NewArchiver(local.New(a.cfg.SnapshotDir), a.logger)
	default:
		return nil
	}
}

// buildPipeline wires every stage from config. The returned cleanup closes
// the Kafka writer when one was created. A nil out disables console reports.
func (a *app) buildPipeline(out io.Writer) (*pipeline.Pipeline, func(), error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}

	stages := pipeline.Stages{
		Fetcher:   httpfetch.NewClient(a.cfg.SourceURL, a.cfg.UserAgent, a.cfg.FetchTimeout, a.logger),
		Extractor: htmltable.Extractor{},
		Normalizer: pipeline.NewNormalizer(domain.NormalizeOptions{
			RejectCollisions:    a.cfg.RejectHeaderCollisions,
			DropUnparsedStreams: a.cfg.DropUnparsedStreams,
		}, a.logger),
		Store:   store,
		Plotter: chart.NewRenderer(a.cfg.OutputDir, a.logger),
	}
	if out != nil {
		stages.Reporter = report.NewPrinter(out)
	}

	cleanup := func() {}
	if a.cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(a.cfg, a.logger)
		stages.Publisher = w
		cleanup = func() {
			if err := w.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}
		a.logger.Info("kafka publishing enabled", "brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaTopic)
	}

	opts := pipeline.Options{
		SourceURL:   a.cfg.SourceURL,
		PreviewRows: a.cfg.PreviewRows,
	}
	if arch := a.archiver(); arch != nil {
		stages.Archiver = arch
		if a.cfg.DatabaseDriver == sqlstore.DriverSQLite {
			opts.SnapshotPath = filepath.Join(a.cfg.OutputDir, "snapshot_"+filepath.Base(a.cfg.DatabasePath))
		}
	}

	p, err := pipeline.New(stages, opts, a.logger, sharedMetrics())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}
