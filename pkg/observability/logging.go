package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/beadnet/pkg/domain"
)

// LoggingHooks logs every event at Info level, except bead arrivals which
// are logged at Debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeChange: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, string(e.Type),
				"node_id", e.Node.ID,
				"balance", e.Node.Balance,
				"offchain_balance", e.Node.OffchainBalance,
			)
		},
		OnChannelChange: func(ctx context.Context, e *domain.ChannelEvent) {
			logger.InfoContext(ctx, string(e.Type),
				"channel_id", e.Channel.ID,
				"source_balance", e.Channel.SourceBalance,
				"target_balance", e.Channel.TargetBalance,
				"highlighted", e.Channel.Highlighted,
			)
		},
		OnTransfer: func(ctx context.Context, e *domain.TransferEvent) {
			level := slog.LevelInfo
			if e.Type == domain.EventBeadArrived {
				level = slog.LevelDebug
			}
			attrs := []any{
				"transfer_id", e.TransferID,
				"channel_id", e.ChannelID,
				"from", e.From,
				"to", e.To,
				"count", e.Count,
			}
			if e.Type == domain.EventBeadArrived {
				attrs = append(attrs, "bead_index", e.BeadIndex)
			}
			if e.Error != "" {
				level = slog.LevelWarn
				attrs = append(attrs, "err", e.Error)
			}
			logger.Log(ctx, level, string(e.Type), attrs...)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			if e.Error != "" {
				logger.WarnContext(ctx, string(e.Type), "index", e.Index, "label", e.Label, "err", e.Error)
				return
			}
			logger.InfoContext(ctx, string(e.Type), "index", e.Index, "label", e.Label)
		},
	}
}
