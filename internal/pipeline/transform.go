package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// SongNormalizer implements Normalizer using the domain cleaning rules.
type SongNormalizer struct {
	opts   domain.NormalizeOptions
	logger *slog.Logger
}

// NewNormalizer creates a SongNormalizer. Zero options keep the default
// rename rules, keep unparsed stream values, and let the later of two
// colliding headers win.
func NewNormalizer(opts domain.NormalizeOptions, logger *slog.Logger) *SongNormalizer {
	return &SongNormalizer{opts: opts, logger: logger}
}

func (n *SongNormalizer) Normalize(_ context.Context, table domain.RawTable) (domain.Snapshot, error) {
	snap, err := domain.Normalize(table, n.opts)
	if err != nil {
		return domain.Snapshot{}, err
	}

	for _, c := range snap.Collisions {
		n.logger.Warn("header collision, keeping later column",
			"column", c.Column, "kept", c.Kept, "shadowed", c.Shadowed)
	}
	if snap.UnparsedKept > 0 {
		n.logger.Warn("stream counts did not parse, stored as NULL", "rows", snap.UnparsedKept)
	}
	n.logger.Debug("table normalized",
		"source_rows", snap.SourceRows,
		"rows", len(snap.Songs),
		"dropped_missing", snap.Dropped.MissingRequired,
		"dropped_footnote", snap.Dropped.Footnote,
		"dropped_unparsed", snap.Dropped.Unparsed,
		"dropped_duplicate", snap.Dropped.Duplicate,
	)
	return snap, nil
}
