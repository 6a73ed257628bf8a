package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/pkg/adapters/file"
	httpadapter "github.com/aretw0/beadnet/pkg/adapters/http"
	"github.com/aretw0/beadnet/pkg/adapters/mcp"
	"github.com/aretw0/beadnet/pkg/adapters/memory"
	redisadapter "github.com/aretw0/beadnet/pkg/adapters/redis"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/observability"
	"github.com/aretw0/beadnet/pkg/persistence/middleware"
	"github.com/aretw0/beadnet/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Options
	Port string
	// RedisAddr stores snapshots in Redis instead of memory.
	RedisAddr string
	// SnapshotTTL expires Redis snapshots; zero keeps them.
	SnapshotTTL time.Duration
	// SnapshotDir stores snapshots as files when Redis is not configured.
	SnapshotDir string
}

// Serve runs the HTTP adapter until ctx is done, then shuts it down and
// cancels the transfers still in flight.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}
	opts.Hooks = append([]domain.LifecycleHooks{metrics.Hooks()}, opts.Hooks...)

	bn, _, err := createEngine(opts.Options)
	if err != nil {
		return err
	}
	defer bn.CancelTransfers()

	handlerOpts := []httpadapter.Option{
		httpadapter.WithLogger(logger),
		httpadapter.WithGatherer(reg),
	}
	var store ports.SnapshotStore = memory.NewStore()
	switch {
	case opts.RedisAddr != "":
		rs := redisadapter.New(opts.RedisAddr, "", 0, redisadapter.WithTTL(opts.SnapshotTTL))
		defer rs.Close()
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", opts.RedisAddr, err)
		}
		store = rs
		handlerOpts = append(handlerOpts,
			httpadapter.WithLocker(redisadapter.NewLocker(rs.Client(), "beadnet:lock:")))
		logger.Info("Snapshots stored in redis", "addr", opts.RedisAddr)
	case opts.SnapshotDir != "":
		store = file.New(opts.SnapshotDir)
		logger.Info("Snapshots stored on disk", "dir", opts.SnapshotDir)
	}
	handlerOpts = append(handlerOpts, httpadapter.WithStore(middleware.Wrap(store,
		middleware.NewLoggingMiddleware(logger),
		middleware.NewValidationMiddleware(),
	)))

	srv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           httpadapter.NewHandler(bn, handlerOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting beadnet server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Shutting down server")
		bn.CancelTransfers()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		logger.Info("Server stopped gracefully")
		return nil
	}
}

// ServeMCP exposes the network over MCP on stdin/stdout.
// Logs must go to stderr so they do not corrupt the JSON-RPC stream.
func ServeMCP(opts Options) error {
	bn, _, err := createEngine(opts)
	if err != nil {
		return err
	}
	defer bn.CancelTransfers()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Starting beadnet MCP server (stdio)")
	return mcp.NewServer(bn, mcp.WithLogger(logger)).ServeStdio()
}
