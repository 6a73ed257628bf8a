package observability

import (
	"context"

	"github.com/aretw0/beadnet/pkg/domain"
)

// Chain returns hooks calling each of the given hooks in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeChange: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeChange != nil {
					h.OnNodeChange(ctx, e)
				}
			}
		},
		OnChannelChange: func(ctx context.Context, e *domain.ChannelEvent) {
			for _, h := range hooks {
				if h.OnChannelChange != nil {
					h.OnChannelChange(ctx, e)
				}
			}
		},
		OnTransfer: func(ctx context.Context, e *domain.TransferEvent) {
			for _, h := range hooks {
				if h.OnTransfer != nil {
					h.OnTransfer(ctx, e)
				}
			}
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStep != nil {
					h.OnStep(ctx, e)
				}
			}
		},
	}
}
