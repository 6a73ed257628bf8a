package cli

import (
	"context"
	"errors"

	"github.com/aretw0/beadnet/internal/presentation/graph"
	"github.com/aretw0/beadnet/pkg/domain"
)

// RenderGraph plays every step instantly and returns the resulting network as Mermaid.
// Steps that fail are skipped like in text mode.
func RenderGraph(ctx context.Context, opts Options) (string, error) {
	opts.Instant = true
	bn, cfg, err := createEngine(opts)
	if err != nil {
		return "", err
	}
	defer bn.CancelTransfers()

	for {
		_, err := bn.NextStep(ctx)
		if errors.Is(err, domain.ErrPresentationEnded) {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err := bn.WaitTransfers(ctx); err != nil && ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return graph.GenerateMermaid(bn.Snapshot(), &graph.GraphOverlay{
		HideBalances:   !cfg.Channels.ShowBalance,
		HighlightColor: cfg.Channels.ColorHighlighted,
	}), nil
}
