package media

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/metrics"
)

const (
	defaultJanitorQueue  = 1024
	maxDeleteAttempts    = 3
	janitorDeleteTimeout = 30 * time.Second
)

// Orphan is a stored object without an owning record.
type Orphan struct {
	Bucket   string
	Path     string
	attempts int
}

// JanitorConfig configures a Janitor.
type JanitorConfig struct {
	Store       ObjectStore
	WorkerCount int
	Interval    time.Duration
	BatchSize   int
	QueueSize   int
}

// Janitor deletes orphaned objects in the background. Orphans are batched
// per bucket and flushed when a batch is full, on every tick, and on Close.
type Janitor struct {
	store     ObjectStore
	interval  time.Duration
	batchSize int

	orphans    chan Orphan
	workerPool *workerpool.WorkerPool

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

func NewJanitor(cfg JanitorConfig) *Janitor {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultJanitorQueue
	}

	return &Janitor{
		store:      cfg.Store,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		orphans:    make(chan Orphan, cfg.QueueSize),
		workerPool: workerpool.New(cfg.WorkerCount),
		done:       make(chan struct{}),
		log:        logger.Component("janitor"),
	}
}

// Enqueue schedules paths in bucket for deletion. It never blocks; when the
// queue is full the orphan is logged and dropped.
func (j *Janitor) Enqueue(bucket string, paths ...string) {
	for _, p := range paths {
		j.push(Orphan{Bucket: bucket, Path: p})
	}
}

func (j *Janitor) push(o Orphan) {
	select {
	case <-j.done:
		// collect has drained the queue for the last time.
		metrics.OrphanedMedia.WithLabelValues(o.Bucket, "dropped").Inc()
		j.log.Error().
			Str("bucket", o.Bucket).
			Str("path", o.Path).
			Msg("Janitor closed, orphan dropped")
		return
	default:
	}

	select {
	case j.orphans <- o:
	default:
		metrics.OrphanedMedia.WithLabelValues(o.Bucket, "dropped").Inc()
		j.log.Error().
			Str("bucket", o.Bucket).
			Str("path", o.Path).
			Msg("Janitor queue full, orphan dropped")
	}
}

func (j *Janitor) Start() {
	j.wg.Add(1)
	go j.collect()
}

// Close flushes pending orphans and waits for in-flight deletes.
func (j *Janitor) Close() {
	j.closeOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
		j.workerPool.StopWait()
	})
}

func (j *Janitor) collect() {
	defer j.wg.Done()

	pending := make(map[string][]Orphan)
	count := 0
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	add := func(o Orphan) {
		pending[o.Bucket] = append(pending[o.Bucket], o)
		count++
		if count >= j.batchSize {
			j.flush(pending)
			pending = make(map[string][]Orphan)
			count = 0
		}
	}

	for {
		select {
		case <-ticker.C:
			j.flush(pending)
			pending = make(map[string][]Orphan)
			count = 0
		case o := <-j.orphans:
			add(o)
		case <-j.done:
			for {
				select {
				case o := <-j.orphans:
					pending[o.Bucket] = append(pending[o.Bucket], o)
				default:
					j.flush(pending)
					return
				}
			}
		}
	}
}

func (j *Janitor) flush(pending map[string][]Orphan) {
	for bucket, orphans := range pending {
		if len(orphans) == 0 {
			continue
		}
		bucket, orphans := bucket, orphans
		j.workerPool.Submit(func() {
			j.delete(bucket, orphans)
		})
	}
}

func (j *Janitor) delete(bucket string, orphans []Orphan) {
	paths := make([]string, len(orphans))
	for i, o := range orphans {
		paths[i] = o.Path
	}

	ctx, cancel := context.WithTimeout(context.Background(), janitorDeleteTimeout)
	defer cancel()

	if err := j.store.Delete(ctx, bucket, paths...); err != nil {
		j.log.Warn().
			Err(err).
			Str("bucket", bucket).
			Int("count", len(paths)).
			Msg("Failed to delete orphaned media")

		for _, o := range orphans {
			o.attempts++
			if o.attempts >= maxDeleteAttempts {
				metrics.OrphanedMedia.WithLabelValues(bucket, "dropped").Inc()
				j.log.Error().
					Str("bucket", bucket).
					Str("path", o.Path).
					Msg("Giving up on orphaned media")
				continue
			}
			j.push(o)
		}
		return
	}

	metrics.OrphanedMedia.WithLabelValues(bucket, "deleted").Add(float64(len(paths)))
	j.log.Info().
		Str("bucket", bucket).
		Int("count", len(paths)).
		Msg("Deleted orphaned media")
}
