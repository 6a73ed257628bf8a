package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beadnet"

// Metrics records network activity as Prometheus metrics.
type Metrics struct {
	NodeEvents       *prometheus.CounterVec
	ChannelEvents    *prometheus.CounterVec
	BeadsMoved       prometheus.Counter
	Transfers        *prometheus.CounterVec
	TransfersActive  prometheus.Gauge
	TransferDuration prometheus.Histogram
	Steps            *prometheus.CounterVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		NodeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_events_total",
			Help:      "Total number of node events by type",
		}, []string{"type"}),
		ChannelEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_events_total",
			Help:      "Total number of channel events by type",
		}, []string{"type"}),
		BeadsMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "beads_moved_total",
			Help:      "Total number of beads that arrived at the other side of a channel",
		}),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Total number of finished transfers by result",
		}, []string{"result"}),
		TransfersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transfers_in_flight",
			Help:      "Number of transfers currently moving beads",
		}),
		TransferDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Duration of transfers from start to last bead",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_played_total",
			Help:      "Total number of presentation steps played by result",
		}, []string{"result"}),
		started: make(map[string]time.Time),
	}

	for _, c := range []prometheus.Collector{
		m.NodeEvents, m.ChannelEvents, m.BeadsMoved, m.Transfers,
		m.TransfersActive, m.TransferDuration, m.Steps,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeChange: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeEvents.WithLabelValues(string(e.Type)).Inc()
		},
		OnChannelChange: func(_ context.Context, e *domain.ChannelEvent) {
			m.ChannelEvents.WithLabelValues(string(e.Type)).Inc()
		},
		OnTransfer: m.onTransfer,
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(result(e.Error)).Inc()
		},
	}
}

func (m *Metrics) onTransfer(_ context.Context, e *domain.TransferEvent) {
	switch e.Type {
	case domain.EventTransferStarted:
		m.TransfersActive.Inc()
		m.mu.Lock()
		m.started[e.TransferID] = e.Timestamp
		m.mu.Unlock()
	case domain.EventBeadArrived:
		m.BeadsMoved.Inc()
	case domain.EventTransferFinished:
		m.TransfersActive.Dec()
		m.Transfers.WithLabelValues(result(e.Error)).Inc()
		m.mu.Lock()
		start, ok := m.started[e.TransferID]
		delete(m.started, e.TransferID)
		m.mu.Unlock()
		if ok {
			m.TransferDuration.Observe(e.Timestamp.Sub(start).Seconds())
		}
	}
}

func result(errMsg string) string {
	if errMsg != "" {
		return "error"
	}
	return "ok"
}
