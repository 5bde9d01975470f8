package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docqueue/internal/common"
	"github.com/joseph-ayodele/docqueue/internal/entity"
)

const (
	DefaultPollInterval   = 3 * time.Second
	DefaultProcessTimeout = 10 * time.Minute
)

// Poller is the embedded continuous worker: one goroutine that claims and
// processes one document at a time, sleeping when the queue is empty.
type Poller struct {
	queue          Queue
	proc           *Processor
	logger         *slog.Logger
	metrics        *Metrics
	stats          *Stats
	workerID       string
	interval       time.Duration
	processTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type PollerOption func(*Poller)

func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithProcessTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.processTimeout = d
		}
	}
}

func WithWorkerID(id string) PollerOption {
	return func(p *Poller) {
		if id != "" {
			p.workerID = id
		}
	}
}

func NewPoller(queue Queue, proc *Processor, logger *slog.Logger, metrics *Metrics, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		queue:          queue,
		proc:           proc,
		logger:         logger,
		metrics:        metrics,
		stats:          &Stats{},
		workerID:       "embedded-" + uuid.NewString()[:8],
		interval:       DefaultPollInterval,
		processTimeout: DefaultProcessTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Poller) WorkerID() string { return p.workerID }

// Stats exposes the poller's counters for read-only use.
func (p *Poller) Stats() *Stats { return p.stats }

func (p *Poller) Alive() bool { return p.stats.Alive() }

// Start launches the loop unless one is already running. It reports whether
// a new loop was started.
func (p *Poller) Start(parent context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return false
		}
	}

	ctx, cancel := context.WithCancel(common.WithWorkerID(parent, p.workerID))
	p.cancel = cancel
	p.done = make(chan struct{})
	p.stats.markStarted(time.Now())
	p.metrics.setAlive(true)

	go p.run(ctx, p.done)
	return true
}

// Stop cancels the loop and waits for it to exit or for ctx to expire.
// A document already claimed is allowed to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker_stop_interrupted", "worker_id", p.workerID)
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker_loop_panic", "worker_id", p.workerID, "panic", fmt.Sprint(r))
		}
		p.stats.markStopped()
		p.metrics.setAlive(false)
		p.logger.Info("worker_stopped", "worker_id", p.workerID, "processed", p.stats.processed.Load(), "failed", p.stats.failed.Load())
	}()

	p.logger.Info("worker_started", "worker_id", p.workerID, "poll_interval", p.interval.String(), "mode", "embedded")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := p.interval
		if p.pollOnce(ctx) {
			next = 0
		}
		timer.Reset(next)
	}
}

// pollOnce claims and processes at most one document. It reports whether a
// document was handled.
func (p *Poller) pollOnce(ctx context.Context) bool {
	p.stats.markPolled(time.Now())

	doc, err := p.queue.ClaimQueuedDocument(ctx, p.workerID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.metrics.storeError("claim")
		p.logger.Error("worker_claim_error", "worker_id", p.workerID, "error", err, "retry_in", p.interval.String())
		return false
	}
	if doc == nil {
		return false
	}
	p.metrics.claimed()
	p.stats.markWorking(doc.Reference + "/" + doc.DocID)

	out := p.process(ctx, doc)
	p.stats.record(out, time.Now())
	return true
}

// process finishes a claimed document under a context detached from
// shutdown, so its terminal write still lands.
func (p *Poller) process(ctx context.Context, doc *entity.Document) Outcome {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.processTimeout)
	defer cancel()
	return p.proc.ProcessOne(common.WithReference(wctx, doc.Reference), doc)
}
