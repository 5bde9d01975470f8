package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docqueue/internal/common"
)

// Drain claims and processes documents until a claim comes back empty and
// returns how many it handled. A claim error ends the drain early.
func Drain(ctx context.Context, queue Queue, proc *Processor, workerID string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = common.WithWorkerID(ctx, workerID)
	start := time.Now()
	logger.Info("worker_drain_start", "worker_id", workerID)

	handled, failed := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("worker_drain_cancelled", "worker_id", workerID, "processed", handled, "error", err)
			return handled, err
		}
		doc, err := queue.ClaimQueuedDocument(ctx, workerID)
		if err != nil {
			proc.metrics.storeError("claim")
			logger.Error("worker_claim_error", "worker_id", workerID, "error", err)
			return handled, fmt.Errorf("claim: %w", err)
		}
		if doc == nil {
			break
		}
		proc.metrics.claimed()

		if out := proc.ProcessOne(ctx, doc); out.Failed() {
			failed++
		}
		handled++
	}

	logger.Info("worker_drain_complete",
		"worker_id", workerID,
		"processed", handled,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return handled, nil
}

// DrainConcurrent runs n independent drain loops against the same queue.
// Exclusivity comes from the store's atomic claim alone.
func DrainConcurrent(ctx context.Context, queue Queue, proc *Processor, n int, workerID string, logger *slog.Logger) (int, error) {
	if n <= 1 {
		return Drain(ctx, queue, proc, workerID, logger)
	}
	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		id := fmt.Sprintf("%s-%d", workerID, i+1)
		g.Go(func() error {
			c, err := Drain(gctx, queue, proc, id, logger)
			total.Add(int64(c))
			return err
		})
	}
	err := g.Wait()
	return int(total.Load()), err
}
