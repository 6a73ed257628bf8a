package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.SnapshotStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation with its duration.
// Failures are logged at warn level.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &loggingMiddleware{next: next, logger: logger.With("component", "snapshot_store")}
	}
}

func (m *loggingMiddleware) log(op, name string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "name", name, "duration", time.Since(start))
	if err != nil {
		m.logger.Warn("snapshot store operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.Debug("snapshot store operation", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, name string, snapshot domain.Snapshot) error {
	start := time.Now()
	err := m.next.Save(ctx, name, snapshot)
	m.log("save", name, start, err, "nodes", len(snapshot.Nodes), "channels", len(snapshot.Channels))
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, name string) (domain.Snapshot, error) {
	start := time.Now()
	snapshot, err := m.next.Load(ctx, name)
	m.log("load", name, start, err)
	return snapshot, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := m.next.Delete(ctx, name)
	m.log("delete", name, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := m.next.List(ctx)
	m.log("list", "", start, err, "count", len(names))
	return names, err
}
