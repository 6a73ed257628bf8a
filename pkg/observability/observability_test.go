package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()
	start := time.Unix(100, 0)

	hooks.Dispatch(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeAdded}})
	hooks.Dispatch(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeAdded}})
	hooks.Dispatch(ctx, &domain.ChannelEvent{EventBase: domain.EventBase{Type: domain.EventChannelAdded}})
	hooks.Dispatch(ctx, &domain.TransferEvent{EventBase: domain.EventBase{Type: domain.EventTransferStarted, Timestamp: start}, TransferID: "t1"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransfersActive))

	hooks.Dispatch(ctx, &domain.TransferEvent{EventBase: domain.EventBase{Type: domain.EventBeadArrived}, TransferID: "t1"})
	hooks.Dispatch(ctx, &domain.TransferEvent{EventBase: domain.EventBase{Type: domain.EventBeadArrived}, TransferID: "t1"})
	hooks.Dispatch(ctx, &domain.TransferEvent{EventBase: domain.EventBase{Type: domain.EventTransferFinished, Timestamp: start.Add(2 * time.Second)}, TransferID: "t1"})
	hooks.Dispatch(ctx, &domain.StepEvent{EventBase: domain.EventBase{Type: domain.EventStepPlayed}, Error: "boom"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeEvents.WithLabelValues(string(domain.EventNodeAdded))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelEvents.WithLabelValues(string(domain.EventChannelAdded))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BeadsMoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transfers.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TransfersActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TransferDuration))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnStep:       func(ctx context.Context, e *domain.StepEvent) { calls = append(calls, "second") },
		OnNodeChange: func(ctx context.Context, e *domain.NodeEvent) { calls = append(calls, "node") },
	}

	hooks := observability.Chain(first, second)
	hooks.Dispatch(context.Background(), &domain.StepEvent{})
	hooks.Dispatch(context.Background(), &domain.NodeEvent{})
	hooks.Dispatch(context.Background(), &domain.ChannelEvent{})

	assert.Equal(t, []string{"first", "second", "node"}, calls)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.Dispatch(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeAdded}, Node: domain.Node{ID: "alice"}})
	hooks.Dispatch(ctx, &domain.TransferEvent{EventBase: domain.EventBase{Type: domain.EventBeadArrived}, TransferID: "quiet"})
	hooks.Dispatch(ctx, &domain.TransferEvent{EventBase: domain.EventBase{Type: domain.EventTransferFinished}, TransferID: "t1", Error: "context canceled"})

	out := buf.String()
	assert.Contains(t, out, "msg=node_added node_id=alice")
	assert.NotContains(t, out, "quiet", "bead arrivals are debug only")
	assert.Contains(t, out, `level=WARN msg=transfer_finished transfer_id=t1`)
	assert.Contains(t, out, `err="context canceled"`)
}
