// Package gcs stores run artifacts in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/jonboulle/clockwork"
)

// Store uploads objects to one bucket. A client is created per call since
// uploads happen at most once per run.
type Store struct {
	bucket string
	clock  clockwork.Clock
}

// New returns a store for bucket.
func New(bucket string) *Store {
	return &Store{bucket: bucket, clock: clockwork.NewRealClock()}
}

// Put uploads localPath to a temporary object, copies it over key and
// removes the temporary object, so readers never see a partial upload.
func (s *Store) Put(ctx context.Context, key, localPath string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcs client: %w", err)
	}
	defer client.Close()

	bucket := client.Bucket(s.bucket)
	tmpName := tmpObjectName(key, s.clock)

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	wc := bucket.Object(tmpName).NewWriter(ctx)
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if _, err := bucket.Object(key).CopierFrom(bucket.Object(tmpName)).Run(ctx); err != nil {
		_ = bucket.Object(tmpName).Delete(ctx)
		return fmt.Errorf("copy %s to %s: %w", tmpName, key, err)
	}
	if err := bucket.Object(tmpName).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", tmpName, err)
	}
	return nil
}

func tmpObjectName(key string, c clockwork.Clock) string {
	return key + ".tmp-" + c.Now().UTC().Format("20060102-150405")
}
