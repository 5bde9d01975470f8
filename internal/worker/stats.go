package worker

import (
	"sync/atomic"
	"time"
)

// Stats holds the running counters of one poller. The poller is the only
// writer; everything else reads through Snapshot.
type Stats struct {
	startedAt  atomic.Int64 // unix nanos, 0 = never
	lastPollAt atomic.Int64
	lastJobAt  atomic.Int64
	processed  atomic.Int64
	failed     atomic.Int64
	alive      atomic.Bool
	currentDoc atomic.Value // string
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Alive       bool       `json:"alive"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	LastPollAt  *time.Time `json:"last_poll_at,omitempty"`
	LastJobAt   *time.Time `json:"last_job_at,omitempty"`
	Processed   int64      `json:"processed"`
	Failed      int64      `json:"failed"`
	CurrentDoc  string     `json:"current_doc,omitempty"`
	QueuedTotal int        `json:"queued_total"`
}

func (s *Stats) markStarted(now time.Time) {
	s.startedAt.Store(now.UnixNano())
	s.alive.Store(true)
}

func (s *Stats) markStopped() {
	s.alive.Store(false)
	s.currentDoc.Store("")
}

func (s *Stats) markPolled(now time.Time) {
	s.lastPollAt.Store(now.UnixNano())
}

func (s *Stats) markWorking(doc string) {
	s.currentDoc.Store(doc)
}

func (s *Stats) record(o Outcome, now time.Time) {
	if o.Failed() {
		s.failed.Add(1)
	} else {
		s.processed.Add(1)
	}
	s.lastJobAt.Store(now.UnixNano())
	s.currentDoc.Store("")
}

// Alive reports whether the owning poller loop is running.
func (s *Stats) Alive() bool {
	return s.alive.Load()
}

func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Alive:      s.alive.Load(),
		StartedAt:  nanosToTime(s.startedAt.Load()),
		LastPollAt: nanosToTime(s.lastPollAt.Load()),
		LastJobAt:  nanosToTime(s.lastJobAt.Load()),
		Processed:  s.processed.Load(),
		Failed:     s.failed.Load(),
	}
	if v, ok := s.currentDoc.Load().(string); ok {
		snap.CurrentDoc = v
	}
	return snap
}

func nanosToTime(n int64) *time.Time {
	if n == 0 {
		return nil
	}
	t := time.Unix(0, n)
	return &t
}
