package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docqueue/internal/ingest"
	"github.com/joseph-ayodele/docqueue/internal/server"
	"github.com/joseph-ayodele/docqueue/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the embedded worker with gRPC health and Prometheus metrics",
		Long: `Run the continuous queue worker. The process serves the gRPC health
service (docqueue.worker is SERVING while the worker is alive) and
Prometheus metrics. SIGHUP kicks the queue; SIGINT/SIGTERM shut down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "watch INGEST_ROOT and register new case files")
	return cmd
}

func (a *app) serve(ctx context.Context, watch bool) error {
	if watch && a.cfg.Ingest.Root == "" {
		return errors.New("--watch needs INGEST_ROOT")
	}
	docs, err := a.store(ctx)
	if err != nil {
		return err
	}
	if err := a.db.HealthCheck(ctx, a.cfg.Database.DialTimeout); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := worker.NewMetrics(reg)

	proc := worker.NewProcessor(docs, a.extractor(), a.logger, metrics)
	poller := worker.NewPoller(docs, proc, a.logger, metrics,
		worker.WithPollInterval(a.cfg.Worker.PollInterval),
		worker.WithProcessTimeout(a.cfg.Worker.ProcessTimeout),
	)
	reporter := server.NewHealthReporter(poller.Alive, 0, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	control := worker.NewControl(gctx, docs, poller, a.logger)
	poller.Start(gctx)

	g.Go(func() error { return server.Serve(gctx, a.cfg.Server.GRPCAddr, reporter, a.logger) })
	g.Go(func() error {
		reporter.Run(gctx)
		return nil
	})
	g.Go(func() error { return serveMetrics(gctx, a.cfg.Server.MetricsAddr, reg, a.logger) })
	g.Go(func() error {
		kickOnHangup(gctx, control, a.logger)
		return nil
	})
	g.Go(func() error {
		heartbeat(gctx, control, a.cfg.Worker.StatsInterval, a.logger)
		return nil
	})
	if watch {
		ing := ingest.NewFSIngestor(docs, a.logger)
		g.Go(func() error {
			err := ingest.WatchAndIngest(gctx, ing, ingest.WatchConfig{
				Roots:       []string{a.cfg.Ingest.Root},
				InitialScan: true,
				SkipHidden:  a.cfg.Ingest.SkipHidden,
				Debounce:    a.cfg.Ingest.Debounce,
			}, a.logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return poller.Stop(sctx)
	})

	err = g.Wait()
	a.logger.Info("shutdown complete", "error", err)
	return err
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("metrics serve error", "error", err)
		return err
	}
}

func kickOnHangup(ctx context.Context, control *worker.Control, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if _, err := control.KickQueue(ctx); err != nil {
				logger.Error("kick on SIGHUP failed", "error", err)
			}
		}
	}
}

func heartbeat(ctx context.Context, control *worker.Control, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s, err := control.GetWorkerStats(ctx)
			if err != nil {
				continue
			}
			logger.Info("worker_stats",
				"alive", s.Alive,
				"processed", s.Processed,
				"failed", s.Failed,
				"queued_total", s.QueuedTotal,
				"current_doc", s.CurrentDoc,
			)
		}
	}
}
