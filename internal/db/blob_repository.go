package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"

	gcs "cloud.google.com/go/storage"
)

// gcsBlobRepository implements the BlobRepository interface on top of the
// project's default Cloud Storage bucket.
type gcsBlobRepository struct {
	bucket *gcs.BucketHandle
}

// NewGCSBlobRepository creates a new instance of gcsBlobRepository.
func NewGCSBlobRepository(bucket *gcs.BucketHandle) BlobRepository {
	if bucket == nil {
		log.Fatal("Cloud Storage bucket is not initialized for BlobRepository.")
	}
	return &gcsBlobRepository{bucket: bucket}
}

// Upload streams the attachment bytes into the bucket under the given key and
// returns a download URL for it.
func (r *gcsBlobRepository) Upload(ctx context.Context, key, contentType string, src io.Reader) (string, error) {
	obj := r.bucket.Object(key)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload attachment '%s': %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize attachment '%s': %w", key, err)
	}

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment attributes for '%s': %w", key, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", attrs.Bucket, url.PathEscape(key)), nil
}
