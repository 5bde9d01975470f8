package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
)

// Serve listens on addr and serves the health service until ctx ends, then
// stops gracefully.
func Serve(ctx context.Context, addr string, reporter *HealthReporter, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return ServeListener(ctx, lis, reporter, logger)
}

func ServeListener(ctx context.Context, lis net.Listener, reporter *HealthReporter, logger *slog.Logger) error {
	grpcServer := grpc.NewServer()
	reporter.Register(grpcServer)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("grpc listening", "addr", lis.Addr().String())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("grpc shutting down")
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Error("gRPC serve error", "error", err)
		}
		return err
	}
}
