package worker

import (
	"context"
	"log/slog"
)

type KickAction string

const (
	KickNone      KickAction = "none"
	KickRestarted KickAction = "worker_restarted"
	KickRunning   KickAction = "worker_running"
)

type KickResult struct {
	Action KickAction `json:"action"`
	Queued int        `json:"queued"`
}

// Control is the administrative surface over the embedded poller.
type Control struct {
	root   context.Context
	queue  Queue
	poller *Poller
	logger *slog.Logger
}

// NewControl binds the control surface to root, the context a restarted
// poller runs under.
func NewControl(root context.Context, queue Queue, poller *Poller, logger *slog.Logger) *Control {
	if logger == nil {
		logger = slog.Default()
	}
	return &Control{root: root, queue: queue, poller: poller, logger: logger}
}

// GetWorkerStats combines the poller counters with the global queued count.
func (c *Control) GetWorkerStats(ctx context.Context) (StatsSnapshot, error) {
	snap := c.poller.Stats().Snapshot()
	n, err := c.queue.CountQueued(ctx)
	if err != nil {
		c.logger.Error("failed to count queued documents", "error", err)
		return snap, err
	}
	snap.QueuedTotal = n
	return snap, nil
}

// KickQueue restarts a dead poller when work is waiting. Repeated calls
// restart at most once.
func (c *Control) KickQueue(ctx context.Context) (KickResult, error) {
	n, err := c.queue.CountQueued(ctx)
	if err != nil {
		c.logger.Error("failed to count queued documents", "error", err)
		return KickResult{}, err
	}
	res := KickResult{Action: KickNone, Queued: n}
	switch {
	case n == 0:
	case c.poller.Alive():
		res.Action = KickRunning
	case c.poller.Start(c.root):
		res.Action = KickRestarted
	default:
		res.Action = KickRunning
	}
	c.logger.Info("queue_kicked", "action", res.Action, "queued", n, "worker_id", c.poller.WorkerID())
	return res, nil
}
