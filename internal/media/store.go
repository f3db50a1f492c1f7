package media

import (
	"context"
	"fmt"
	"io"
)

// ObjectStore is the remote object storage the orchestrator uploads into.
type ObjectStore interface {
	// Upload stores body under path in bucket and returns the stored path.
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error)
	// PublicURL resolves a stored path to the URL visitors load.
	PublicURL(bucket, storedPath string) string
	// Delete removes stored paths from bucket.
	Delete(ctx context.Context, bucket string, paths ...string) error
}

// UploadError reports the file that aborted an upload batch.
type UploadError struct {
	File string
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s to %s: %v", e.File, e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Asset is one uploaded file of a batch.
type Asset struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// Batch is the ordered result of one Upload call.
type Batch struct {
	Bucket string
	Assets []Asset
}

// URLs returns the public URLs in upload order.
func (b *Batch) URLs() []string {
	if b == nil {
		return nil
	}
	urls := make([]string, len(b.Assets))
	for i, a := range b.Assets {
		urls[i] = a.URL
	}
	return urls
}

// Paths returns the stored paths in upload order.
func (b *Batch) Paths() []string {
	if b == nil {
		return nil
	}
	paths := make([]string, len(b.Assets))
	for i, a := range b.Assets {
		paths[i] = a.Path
	}
	return paths
}
