package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/beadnet"
	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/pkg/config"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/dsl"
	"github.com/aretw0/beadnet/pkg/observability"
	"github.com/aretw0/beadnet/pkg/script"
)

// Options carries the settings shared by every command.
type Options struct {
	// ConfigPath is an options file (--config).
	ConfigPath string
	// ScriptPath is an options file whose presentation is played.
	// When empty the built-in demo is played.
	ScriptPath string
	// Instant moves beads without delay.
	Instant bool
	Logger  *slog.Logger
	Hooks   []domain.LifecycleHooks
}

// LoadOptions reads the configuration and the script presentation.
// The script's presentation replaces the configured one.
func LoadOptions(opts Options) (config.Options, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Options{}, err
		}
		cfg = loaded
	}
	if opts.ScriptPath != "" {
		scripted, err := config.Load(opts.ScriptPath)
		if err != nil {
			return config.Options{}, err
		}
		if opts.ConfigPath == "" {
			cfg = scripted
		} else {
			cfg.Presentation = scripted.Presentation
		}
	}
	return cfg, nil
}

// createEngine initializes a Beadnet with the CLI conventions: logging hooks,
// the demo when nothing else is scheduled, zero timing for instant runs.
// Invalid script steps are logged and skipped.
func createEngine(opts Options) (*beadnet.Beadnet, config.Options, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg, err := LoadOptions(opts)
	if err != nil {
		return nil, config.Options{}, err
	}

	hooks := append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, opts.Hooks...)
	bnOpts := []beadnet.Option{
		beadnet.WithLogger(logger),
		beadnet.WithOptions(cfg),
		beadnet.WithLifecycleHooks(observability.Chain(hooks...)),
	}
	if !cfg.HasPresentation() {
		bnOpts = append(bnOpts, beadnet.WithSteps(dsl.Demo().Build()))
	}
	if opts.Instant {
		bnOpts = append(bnOpts, beadnet.WithTiming(beadnet.Timing{}))
	}

	bn, err := beadnet.New(bnOpts...)
	var aggr *script.AggregateError
	if errors.As(err, &aggr) {
		for _, e := range aggr.Errors {
			logger.Warn("skipping invalid sub-step", "err", e)
		}
		err = nil
	}
	if err != nil {
		return nil, config.Options{}, fmt.Errorf("error initializing beadnet: %w", err)
	}
	return bn, cfg, nil
}
