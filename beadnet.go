package beadnet

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/internal/network"
	"github.com/aretw0/beadnet/pkg/config"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/ports"
	"github.com/aretw0/beadnet/pkg/script"
	"github.com/benbjohnson/clock"
)

type (
	// Transfer is a running MoveBeads task.
	Transfer = network.Transfer
	// TransferOption configures a single MoveBeads call.
	TransferOption = network.TransferOption
	// Timing is the bead animation schedule.
	Timing = network.Timing
	// NameGenerator picks names for nodes added without an id.
	NameGenerator = network.NameGenerator
)

// DefaultTiming moves the first bead in one second and staggers the others by 100ms.
var DefaultTiming = network.DefaultTiming

// OnComplete registers a callback invoked exactly once when a transfer ends.
func OnComplete(fn func(error)) TransferOption {
	return network.OnComplete(fn)
}

// Beadnet is the high-level entry point of the library.
// It embeds the network model and adds the presentation player.
type Beadnet struct {
	*network.Network

	player  *script.Player
	options config.Options
	logger  *slog.Logger
	clock   clock.Clock

	hooks    domain.LifecycleHooks
	netOpts  []network.Option
	rawSteps []script.RawStep
	steps    []script.Step
	err      error
}

// Option defines a functional option for configuring Beadnet.
type Option func(*Beadnet)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Beadnet) {
		b.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Beadnet) {
		b.hooks = hooks
	}
}

// WithClock sets the clock driving bead arrivals. Tests use clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(b *Beadnet) {
		b.clock = c
	}
}

// WithRand sets the random source used for default balances and names.
func WithRand(r *rand.Rand) Option {
	return func(b *Beadnet) {
		b.netOpts = append(b.netOpts, network.WithRand(r))
	}
}

// WithColorScheme sets the palette used to color new nodes.
func WithColorScheme(scheme domain.ColorScheme) Option {
	return func(b *Beadnet) {
		b.netOpts = append(b.netOpts, network.WithColorScheme(scheme))
	}
}

// WithNameGenerator replaces the random node name generator.
func WithNameGenerator(g NameGenerator) Option {
	return func(b *Beadnet) {
		b.netOpts = append(b.netOpts, network.WithNameGenerator(g))
	}
}

// WithTiming sets the bead animation schedule.
func WithTiming(t Timing) Option {
	return func(b *Beadnet) {
		b.netOpts = append(b.netOpts, network.WithTiming(t))
	}
}

// WithPresentation enables presentation mode with raw steps, as found in config files.
func WithPresentation(steps []script.RawStep) Option {
	return func(b *Beadnet) {
		b.rawSteps = steps
		b.steps = nil
	}
}

// WithSteps enables presentation mode with typed steps, e.g. built with pkg/dsl.
func WithSteps(steps []script.Step) Option {
	return func(b *Beadnet) {
		b.steps = steps
		b.rawSteps = nil
	}
}

// WithOptions applies a configuration: color scheme, bead timing and presentation.
// Options given after it override the matching settings.
func WithOptions(opts config.Options) Option {
	return func(b *Beadnet) {
		b.options = opts
		scheme, err := opts.Palette()
		if err != nil {
			b.err = err
			return
		}
		b.netOpts = append(b.netOpts,
			network.WithColorScheme(scheme),
			network.WithTiming(Timing{Duration: opts.Beads.Duration, Stagger: opts.Beads.Stagger}),
		)
		if opts.HasPresentation() {
			b.rawSteps = opts.Presentation.Steps
			b.steps = nil
		}
	}
}

// New creates a Beadnet.
//
// When the presentation holds invalid sub-steps, New returns a usable Beadnet
// together with a *script.AggregateError describing them; the invalid
// sub-steps are skipped when played.
func New(opts ...Option) (*Beadnet, error) {
	b := &Beadnet{
		options: config.Default(),
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.err != nil {
		return nil, fmt.Errorf("invalid options: %w", b.err)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}

	netOpts := append([]network.Option{
		network.WithClock(b.clock),
		network.WithLogger(b.logger),
		network.WithLifecycleHooks(b.hooks),
	}, b.netOpts...)
	b.Network = network.New(netOpts...)

	playerOpts := []script.Option{
		script.WithTarget(scriptTarget{b.Network}),
		script.WithLogger(b.logger),
		script.WithNow(b.clock.Now),
		script.WithStepObserver(func(ctx context.Context, e *domain.StepEvent) {
			b.Network.Publish(ctx, e)
		}),
	}

	var err error
	switch {
	case len(b.rawSteps) > 0:
		b.player, err = script.NewPlayer(b.rawSteps, playerOpts...)
		if err != nil {
			b.logger.Warn("presentation has invalid steps", "err", err)
		}
	case len(b.steps) > 0:
		b.player = script.NewStepPlayer(b.steps, playerOpts...)
	}
	return b, err
}

// NextStep plays the next presentation step and returns its label.
// It fails with domain.ErrNotInPresentationMode when no presentation was configured.
func (b *Beadnet) NextStep(ctx context.Context) (string, error) {
	if b.player == nil {
		return "", domain.ErrNotInPresentationMode
	}
	return b.player.NextStep(ctx)
}

// Presentation returns the presentation player, or nil outside presentation mode.
func (b *Beadnet) Presentation() *script.Player {
	return b.player
}

// Options returns the configuration the Beadnet was created with.
func (b *Beadnet) Options() config.Options {
	return b.options
}

// SaveSnapshot stores the current network under name.
func (b *Beadnet) SaveSnapshot(ctx context.Context, store ports.SnapshotStore, name string) error {
	if err := store.Save(ctx, name, b.Snapshot()); err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}
	b.logger.Info("snapshot saved", "name", name)
	return nil
}

// RestoreSnapshot replaces the network with the snapshot stored under name.
// Transfers in flight are cancelled first.
func (b *Beadnet) RestoreSnapshot(ctx context.Context, store ports.SnapshotStore, name string) error {
	s, err := store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}
	b.CancelTransfers()
	return b.Restore(ctx, s)
}

// scriptTarget adapts the network to script.Target.
type scriptTarget struct {
	*network.Network
}

func (t scriptTarget) MoveBeads(ctx context.Context, sourceID, targetID string, count int, wait bool) error {
	transfer, err := t.Network.MoveBeads(ctx, sourceID, targetID, count)
	if err != nil || !wait {
		return err
	}
	return transfer.Wait(ctx)
}
