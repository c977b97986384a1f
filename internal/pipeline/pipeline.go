package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
	"github.com/couchcryptid/streams-chart-etl/internal/observability"
)

// Stage names used for logging and metric labels.
const (
	stageFetch     = "fetch"
	stageExtract   = "extract"
	stageNormalize = "normalize"
	stagePersist   = "persist"
	stageReport    = "report"
	stagePlot      = "plot"
	stagePublish   = "publish"
	stageArchive   = "archive"
)

// Fetcher downloads the source page.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Extractor pulls the first table out of an HTML page.
type Extractor interface {
	Extract(html string) (domain.RawTable, error)
}

// Normalizer cleans a raw table into a snapshot.
type Normalizer interface {
	Normalize(ctx context.Context, table domain.RawTable) (domain.Snapshot, error)
}

// Store persists snapshots and the run log.
type Store interface {
	Location() string
	Replace(ctx context.Context, snap domain.Snapshot) error
	Preview(ctx context.Context, limit int) (domain.TablePreview, error)
	RecordRun(ctx context.Context, run domain.Run) error
}

// Snapshotter is implemented by stores that can copy themselves to a file.
type Snapshotter interface {
	SnapshotTo(ctx context.Context, outPath string) error
}

// Reporter prints the console summary of a run.
type Reporter interface {
	Saved(location string, rows int, err error)
	Preview(p domain.TablePreview)
	PreviewFailed(err error)
	Summary(songs []domain.Song)
}

// Plotter renders chart files and returns their paths.
type Plotter interface {
	Render(ctx context.Context, songs []domain.Song) ([]string, error)
}

// Publisher forwards a snapshot to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Archiver uploads run artifacts under a key prefix.
type Archiver interface {
	Archive(ctx context.Context, prefix string, paths ...string) error
}

// Stages wires the pipeline. Fetcher, Extractor, Normalizer and Store are
// required; the rest are skipped when nil.
type Stages struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Normalizer Normalizer
	Store      Store
	Reporter   Reporter
	Plotter    Plotter
	Publisher  Publisher
	Archiver   Archiver
}

// Options tune a pipeline run.
type Options struct {
	SourceURL   string
	PreviewRows int

	// SnapshotPath is where a database copy is written before archiving.
	// Empty disables the database copy.
	SnapshotPath string
}

// Result describes one completed or aborted run.
type Result struct {
	RunID      string
	StartedAt  time.Time
	CapturedOn time.Time
	Status     domain.RunStatus
	RowsParsed int
	RowsStored int
	Snapshot   domain.Snapshot
	Charts     []string

	// Errors holds the non-fatal failures of the run in stage order.
	Errors []error
}

// Pipeline runs fetch, extract, normalize, persist, report and plot in order.
type Pipeline struct {
	stages  Stages
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	latest  atomic.Pointer[Result]
	mu      sync.Mutex
}

// New creates a Pipeline with the given stages and observability.
func New(stages Stages, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	if stages.Fetcher == nil || stages.Extractor == nil || stages.Normalizer == nil || stages.Store == nil {
		return nil, errors.New("pipeline: fetcher, extractor, normalizer and store are required")
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 5
	}
	return &Pipeline{
		stages:  stages,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// CheckReadiness returns nil once a run has succeeded,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LatestSnapshot returns the snapshot of the last successful run.
func (p *Pipeline) LatestSnapshot() (domain.Snapshot, bool) {
	res := p.latest.Load()
	if res == nil {
		return domain.Snapshot{}, false
	}
	return res.Snapshot, true
}

// Run executes one pass of the pipeline. The returned error is non-nil only
// for a NetworkError or ParseError; later stage failures land in Result.Errors.
// Runs never overlap.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	res := Result{RunID: uuid.NewString(), StartedAt: domain.Now()}
	p.logger.Info("pipeline run started", "run_id", res.RunID, "source", p.opts.SourceURL)

	snap, err := p.acquire(ctx)
	if err != nil {
		p.logger.Error("pipeline run aborted", "run_id", res.RunID, "error", err)
		p.finish(ctx, &res, err)
		return res, err
	}
	res.Snapshot = snap
	res.CapturedOn = snap.CapturedOn
	res.RowsParsed = len(snap.Songs)

	saveErr := p.persist(ctx, &res)
	p.report(ctx, &res, saveErr)
	p.plot(ctx, &res)
	p.publish(ctx, &res)
	p.archive(ctx, &res, saveErr == nil)

	p.finish(ctx, &res, nil)
	return res, nil
}

// acquire runs the fatal stages: fetch, extract and normalize.
func (p *Pipeline) acquire(ctx context.Context) (domain.Snapshot, error) {
	var html string
	err := p.stage(stageFetch, func() error {
		var err error
		html, err = p.stages.Fetcher.Fetch(ctx)
		return err
	})
	if err != nil {
		return domain.Snapshot{}, &NetworkError{URL: p.opts.SourceURL, Err: err}
	}

	var table domain.RawTable
	err = p.stage(stageExtract, func() error {
		var err error
		table, err = p.stages.Extractor.Extract(html)
		return err
	})
	if err != nil {
		return domain.Snapshot{}, &ParseError{Err: err}
	}
	p.metrics.RowsFetched.Add(float64(len(table.Rows)))

	var snap domain.Snapshot
	err = p.stage(stageNormalize, func() error {
		var err error
		snap, err = p.stages.Normalizer.Normalize(ctx, table)
		return err
	})
	if err != nil {
		return domain.Snapshot{}, &ParseError{Err: err}
	}

	p.metrics.HeaderCollisions.Add(float64(len(snap.Collisions)))
	p.metrics.RowsDropped.WithLabelValues("missing").Add(float64(snap.Dropped.MissingRequired))
	p.metrics.RowsDropped.WithLabelValues("footnote").Add(float64(snap.Dropped.Footnote))
	p.metrics.RowsDropped.WithLabelValues("unparsed").Add(float64(snap.Dropped.Unparsed))
	p.metrics.RowsDropped.WithLabelValues("duplicate").Add(float64(snap.Dropped.Duplicate))
	p.metrics.UnparsedKept.Set(float64(snap.UnparsedKept))
	return snap, nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result) error {
	err := p.stage(stagePersist, func() error {
		return p.stages.Store.Replace(ctx, res.Snapshot)
	})
	if err != nil {
		perr := &PersistenceError{Location: p.stages.Store.Location(), Err: err}
		p.logger.Error("persist failed", "run_id", res.RunID, "error", perr)
		res.Errors = append(res.Errors, perr)
		return perr
	}
	res.RowsStored = len(res.Snapshot.Songs)
	p.metrics.RowsStored.Set(float64(res.RowsStored))
	p.logger.Info("snapshot stored", "location", p.stages.Store.Location(), "rows", res.RowsStored)
	return nil
}

func (p *Pipeline) report(ctx context.Context, res *Result, saveErr error) {
	r := p.stages.Reporter
	if r == nil {
		return
	}
	r.Saved(p.stages.Store.Location(), res.RowsStored, saveErr)

	// The read-back runs even after a failed save so that a stale or
	// missing table is reported on its own line.
	var preview domain.TablePreview
	err := p.stage(stageReport, func() error {
		var err error
		preview, err = p.stages.Store.Preview(ctx, p.opts.PreviewRows)
		return err
	})
	if err != nil {
		r.PreviewFailed(err)
		err = fmt.Errorf("preview: %w", err)
		p.logger.Warn("preview failed", "error", err)
		res.Errors = append(res.Errors, err)
	} else {
		r.Preview(preview)
	}
	r.Summary(res.Snapshot.Songs)
}

func (p *Pipeline) plot(ctx context.Context, res *Result) {
	if p.stages.Plotter == nil {
		return
	}
	err := p.stage(stagePlot, func() error {
		var err error
		res.Charts, err = p.stages.Plotter.Render(ctx, res.Snapshot.Songs)
		return err
	})
	if err != nil {
		err = fmt.Errorf("plot: %w", err)
		p.logger.Error("plot failed", "error", err)
		res.Errors = append(res.Errors, err)
		return
	}
	for _, path := range res.Charts {
		p.logger.Info("chart written", "path", path)
	}
}

func (p *Pipeline) publish(ctx context.Context, res *Result) {
	if p.stages.Publisher == nil {
		return
	}
	err := p.stage(stagePublish, func() error {
		return p.stages.Publisher.Publish(ctx, res.Snapshot)
	})
	if err != nil {
		err = fmt.Errorf("publish: %w", err)
		p.logger.Error("publish failed", "error", err)
		res.Errors = append(res.Errors, err)
		return
	}
	p.metrics.MessagesProduced.Add(float64(len(res.Snapshot.Songs)))
}

func (p *Pipeline) archive(ctx context.Context, res *Result, stored bool) {
	if p.stages.Archiver == nil {
		return
	}
	err := p.stage(stageArchive, func() error {
		paths := append([]string(nil), res.Charts...)
		if snap, ok := p.stages.Store.(Snapshotter); ok && stored && p.opts.SnapshotPath != "" {
			if err := snap.SnapshotTo(ctx, p.opts.SnapshotPath); err != nil {
				return fmt.Errorf("snapshot database: %w", err)
			}
			paths = append(paths, p.opts.SnapshotPath)
		}
		if len(paths) == 0 {
			return nil
		}
		return p.stages.Archiver.Archive(ctx, res.CapturedOn.Format(domain.DateLayout), paths...)
	})
	if err != nil {
		err = fmt.Errorf("archive: %w", err)
		p.logger.Error("archive failed", "error", err)
		res.Errors = append(res.Errors, err)
	}
}

// finish settles the run status, records metrics and the audit row, and
// publishes the result for readers when the run succeeded.
func (p *Pipeline) finish(ctx context.Context, res *Result, fatal error) {
	res.Status = domain.RunSucceeded
	errText := ""
	switch {
	case fatal != nil:
		res.Status = domain.RunFailed
		errText = fatal.Error()
	case persistFailed(res.Errors):
		res.Status = domain.RunFailed
		errText = errors.Join(res.Errors...).Error()
	}
	p.metrics.RunsTotal.WithLabelValues(string(res.Status)).Inc()

	run := domain.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		CapturedOn: res.CapturedOn,
		SourceURL:  p.opts.SourceURL,
		RowsParsed: res.RowsParsed,
		RowsStored: res.RowsStored,
		Status:     res.Status,
		Error:      errText,
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.stages.Store.RecordRun(recordCtx, run); err != nil {
		p.logger.Warn("record run failed", "run_id", res.RunID, "error", err)
	}

	if res.Status != domain.RunSucceeded {
		return
	}
	p.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	latest := *res
	p.latest.Store(&latest)
	p.ready.Store(true)
	p.logger.Info("pipeline run finished",
		"run_id", res.RunID,
		"rows_parsed", res.RowsParsed,
		"rows_stored", res.RowsStored,
		"warnings", len(res.Errors),
	)
}

// stage times fn and counts its failure under the stage label.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.StageErrors.WithLabelValues(name).Inc()
	}
	return err
}

func persistFailed(errs []error) bool {
	for _, err := range errs {
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return true
		}
	}
	return false
}
