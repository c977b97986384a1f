// Package objectstore archives run artifacts (database snapshot and charts)
// to object storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
)

// ObjectStore uploads a local file under an object key.
type ObjectStore interface {
	Put(ctx context.Context, key, localPath string) error
}

// Archiver uploads a set of files under a common key prefix.
type Archiver struct {
	store  ObjectStore
	logger *slog.Logger
}

// NewArchiver wraps store.
func NewArchiver(store ObjectStore, logger *slog.Logger) *Archiver {
	return &Archiver{store: store, logger: logger}
}

// Archive uploads every path as <prefix>/<base name>. All uploads are
// attempted; failures are joined.
func (a *Archiver) Archive(ctx context.Context, prefix string, paths ...string) error {
	var errs []error
	for _, p := range paths {
		key := path.Join(prefix, filepath.Base(p))
		if err := a.store.Put(ctx, key, p); err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", key, err))
			continue
		}
		a.logger.Debug("artifact archived", "key", key)
	}
	return errors.Join(errs...)
}
