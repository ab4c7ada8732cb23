// Package clicks applies visit counter increments for resolved short codes.
//
// SyncRecorder applies each increment before returning. AsyncRecorder hands
// increments to a pool of workers so redirects do not wait on the store; its
// queue is drained on Close.
package clicks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortcode/internal/metrics"
)

const (
	ModeSync  = "sync"
	ModeAsync = "async"

	defaultQueueSize = 1024
	defaultWorkers   = 4
	applyTimeout     = 5 * time.Second
)

// ErrRecorderClosed is reported when a click arrives after Close.
var ErrRecorderClosed = errors.New("click recorder closed")

type clickRepository interface {
	IncrementClicks(ctx context.Context, shortCode string) error
}

type applier struct {
	repo   clickRepository
	logger *slog.Logger
}

// apply runs a single atomic increment. Failures are logged and counted, never
// retried, so a click is applied at most once.
func (a *applier) apply(ctx context.Context, shortCode string) {
	const op = "clicks.apply"

	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	if err := a.repo.IncrementClicks(ctx, shortCode); err != nil {
		metrics.ClickFailures.Inc()
		a.logger.Error("failed to increment clicks",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}
}

type SyncRecorder struct {
	applier
}

func NewSyncRecorder(repo clickRepository, logger *slog.Logger) *SyncRecorder {
	return &SyncRecorder{applier{repo: repo, logger: logger}}
}

// Record increments the counter for shortCode. The increment is not aborted
// when ctx is canceled after the lookup succeeded.
func (r *SyncRecorder) Record(ctx context.Context, shortCode string) {
	r.apply(context.WithoutCancel(ctx), shortCode)
}

func (r *SyncRecorder) Close() error {
	return nil
}

type AsyncOption func(*AsyncRecorder)

func WithQueueSize(n int) AsyncOption {
	return func(r *AsyncRecorder) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

func WithWorkers(n int) AsyncOption {
	return func(r *AsyncRecorder) {
		if n > 0 {
			r.workers = n
		}
	}
}

type AsyncRecorder struct {
	applier
	queueSize int
	workers   int
	queue     chan string
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
}

// NewAsyncRecorder starts the worker pool immediately.
func NewAsyncRecorder(repo clickRepository, logger *slog.Logger, opts ...AsyncOption) *AsyncRecorder {
	r := &AsyncRecorder{
		applier:   applier{repo: repo, logger: logger},
		queueSize: defaultQueueSize,
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.queue = make(chan string, r.queueSize)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work()
	}

	return r
}

func (r *AsyncRecorder) work() {
	defer r.wg.Done()

	for shortCode := range r.queue {
		r.apply(context.Background(), shortCode)
	}
}

// Record enqueues one click for shortCode. It blocks while the queue is full.
// Clicks arriving after Close are applied inline.
func (r *AsyncRecorder) Record(ctx context.Context, shortCode string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("click recorded after close, applying inline",
			slog.String("short_code", shortCode),
			slog.Any("err", ErrRecorderClosed),
		)
		r.apply(context.WithoutCancel(ctx), shortCode)
		return
	}

	r.queue <- shortCode
}

// Close stops accepting clicks and waits until queued clicks are applied.
func (r *AsyncRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()

	return nil
}
