// Package media uploads local files to the object store and cleans up
// objects left behind by failed submissions.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/metrics"
)

// sniffLen is how many leading bytes are inspected to detect the content type.
const sniffLen = 3072

const discardTimeout = 30 * time.Second

// Orchestrator uploads a batch of files one at a time.
type Orchestrator struct {
	store   ObjectStore
	janitor *Janitor
	now     func() time.Time
	token   func() string
	log     zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJanitor hands objects that could not be deleted to j.
func WithJanitor(j *Janitor) Option {
	return func(o *Orchestrator) { o.janitor = j }
}

// WithClock overrides time.Now for path generation.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTokenSource overrides the random part of object paths.
func WithTokenSource(token func() string) Option {
	return func(o *Orchestrator) { o.token = token }
}

func NewOrchestrator(store ObjectStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: store,
		now:   time.Now,
		token: RandomToken,
		log:   logger.Component("media"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Upload sends files to bucket under ownerID in input order, waiting for each
// upload before starting the next. The first failure aborts the batch: files
// already stored are discarded and an *UploadError naming the failing file is
// returned.
func (o *Orchestrator) Upload(ctx context.Context, files []File, bucket, ownerID string) (*Batch, error) {
	batch := &Batch{Bucket: bucket, Assets: make([]Asset, 0, len(files))}

	for _, f := range files {
		asset, err := o.uploadOne(ctx, f, bucket, ownerID)
		if err != nil {
			o.log.Error().
				Err(err).
				Str("bucket", bucket).
				Str("owner_id", ownerID).
				Str("file", f.Name).
				Int("uploaded", len(batch.Assets)).
				Msg("Upload failed, aborting batch")
			o.Discard(ctx, batch)
			return nil, err
		}
		batch.Assets = append(batch.Assets, asset)
	}

	o.log.Debug().
		Str("bucket", bucket).
		Str("owner_id", ownerID).
		Int("files", len(batch.Assets)).
		Msg("Upload batch stored")
	return batch, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, f File, bucket, ownerID string) (Asset, error) {
	path := ObjectPath(ownerID, f.Name, o.now(), o.token())
	start := time.Now()

	fail := func(err error) (Asset, error) {
		metrics.MediaUploads.WithLabelValues(bucket, "error").Inc()
		return Asset{}, &UploadError{File: f.Name, Path: path, Err: err}
	}

	if f.Open == nil {
		return fail(errors.New("file has no content"))
	}
	rc, err := f.Open()
	if err != nil {
		return fail(fmt.Errorf("open: %w", err))
	}
	defer rc.Close()

	body, contentType, err := sniff(rc)
	if err != nil {
		return fail(fmt.Errorf("read: %w", err))
	}

	stored, err := o.store.Upload(ctx, bucket, path, body, contentType)
	if err != nil {
		return fail(err)
	}

	metrics.MediaUploads.WithLabelValues(bucket, "ok").Inc()
	metrics.UploadDuration.WithLabelValues(bucket).Observe(time.Since(start).Seconds())

	return Asset{
		Name:        f.Name,
		Path:        stored,
		URL:         o.store.PublicURL(bucket, stored),
		ContentType: contentType,
	}, nil
}

// Discard deletes the objects of batch. Objects that cannot be deleted now
// are handed to the janitor when one is configured.
func (o *Orchestrator) Discard(ctx context.Context, batch *Batch) {
	if batch == nil || len(batch.Assets) == 0 {
		return
	}
	paths := batch.Paths()

	// The submission that owned these objects may already be cancelled.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	err := o.store.Delete(dctx, batch.Bucket, paths...)
	if err == nil {
		metrics.OrphanedMedia.WithLabelValues(batch.Bucket, "deleted").Add(float64(len(paths)))
		o.log.Info().
			Str("bucket", batch.Bucket).
			Strs("paths", paths).
			Msg("Discarded uploaded media")
		return
	}

	if o.janitor != nil {
		o.janitor.Enqueue(batch.Bucket, paths...)
		metrics.OrphanedMedia.WithLabelValues(batch.Bucket, "queued").Add(float64(len(paths)))
		o.log.Warn().
			Err(err).
			Str("bucket", batch.Bucket).
			Strs("paths", paths).
			Msg("Discard failed, queued for janitor")
		return
	}

	metrics.OrphanedMedia.WithLabelValues(batch.Bucket, "dropped").Add(float64(len(paths)))
	o.log.Error().
		Err(err).
		Str("bucket", batch.Bucket).
		Strs("paths", paths).
		Msg("Discard failed, media orphaned")
}

func sniff(r io.Reader) (io.Reader, string, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	header = header[:n]
	return io.MultiReader(bytes.NewReader(header), r), mimetype.Detect(header).String(), nil
}
