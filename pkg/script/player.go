package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/pkg/domain"
)

// State is the lifecycle of a presentation.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateFinished   State = "finished"
)

// Player replays a script one step at a time.
type Player struct {
	mu     sync.Mutex
	steps  []Step
	cursor int

	target Target
	hooks  domain.LifecycleHooks
	onStep func(context.Context, *domain.StepEvent)
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Player.
type Option func(*Player)

// WithTarget sets where commands are dispatched.
func WithTarget(t Target) Option {
	return func(p *Player) {
		p.target = t
	}
}

// WithLifecycleHooks registers hooks. Only OnStep is used by the player.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Player) {
		p.hooks = hooks
	}
}

// WithStepObserver registers a function receiving every played step,
// in addition to the lifecycle hooks.
func WithStepObserver(fn func(context.Context, *domain.StepEvent)) Option {
	return func(p *Player) {
		p.onStep = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithNow sets the time source used to stamp step events.
func WithNow(now func() time.Time) Option {
	return func(p *Player) {
		p.now = now
	}
}

// NewPlayer decodes and validates raw steps. Validation failures are returned
// as an *AggregateError together with a usable player: invalid sub-steps are
// skipped when their step is played.
func NewPlayer(raw []RawStep, opts ...Option) (*Player, error) {
	steps, err := Parse(raw)
	return NewStepPlayer(steps, opts...), err
}

// NewStepPlayer creates a player for already typed steps.
func NewStepPlayer(steps []Step, opts ...Option) *Player {
	p := &Player{
		steps:  steps,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NextStep plays the step under the cursor and advances it.
// It returns the step label and the joined errors of the failed commands;
// once every step was played it returns domain.ErrPresentationEnded.
func (p *Player) NextStep(ctx context.Context) (string, error) {
	if p == nil {
		return "", domain.ErrNotInPresentationMode
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor >= len(p.steps) {
		return "", domain.ErrPresentationEnded
	}
	if p.target == nil {
		return "", fmt.Errorf("player has no target: %w", domain.ErrInvalidArgument)
	}

	index := p.cursor
	step := p.steps[index]
	p.logger.Info("playing step", "index", index, "label", step.Label, "commands", len(step.Commands))

	var errs []error
	for i, cmd := range step.Commands {
		if err := Dispatch(ctx, p.target, cmd); err != nil {
			p.logger.Warn("command failed", "index", index, "command", cmd.Name(), "err", err)
			errs = append(errs, fmt.Errorf("step %d, command %d (%s): %w", index, i, cmd.Name(), err))
		}
	}
	p.cursor++

	err := errors.Join(errs...)
	ev := &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: p.now(), Type: domain.EventStepPlayed},
		Index:     index,
		Label:     step.Label,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.hooks.Dispatch(ctx, ev)
	if p.onStep != nil {
		p.onStep(ctx, ev)
	}
	return step.Label, err
}

// Steps returns a copy of the decoded steps.
func (p *Player) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Step(nil), p.steps...)
}

// Cursor returns the index of the next step to play.
func (p *Player) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Len returns the number of steps.
func (p *Player) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.steps)
}

// State returns the presentation lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.cursor >= len(p.steps):
		return StateFinished
	case p.cursor == 0:
		return StateNotStarted
	default:
		return StateRunning
	}
}

// Reset rewinds the presentation to its first step.
// The network itself is left untouched.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = 0
}
