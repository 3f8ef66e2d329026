// Package archive uploads renamed invoice files to Google Cloud Storage for
// long-term retention.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/invoice-ingest/internal/pipeline"
)

// GCSArchiver copies each renamed invoice into gs://bucket/{year}/{month}/.
// It implements pipeline.Archiver and assumes Application Default
// Credentials are configured.
type GCSArchiver struct {
	bucket string
}

func NewGCSArchiver(bucket string) *GCSArchiver {
	return &GCSArchiver{bucket: bucket}
}

// Store uploads the file at filePath under its canonical name.
func (a *GCSArchiver) Store(ctx context.Context, period pipeline.BillingPeriod, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("archive: open %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("archive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectName := path.Join(period.Year, period.Month, filepath.Base(filePath))
	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	defer func() {
		_ = w.Close()
	}()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archive: copy %q to gs://%s/%s: %w", filePath, a.bucket, objectName, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("archive: finalize upload of %q: %w", filePath, err)
	}

	return nil
}
