package dsl

import (
	"github.com/aretw0/beadnet/pkg/script"
)

// Builder manages the script construction.
type Builder struct {
	steps []*StepBuilder
}

// New creates a new script builder.
func New() *Builder {
	return &Builder{}
}

// Step appends a new step with the given label. An empty label is allowed.
func (b *Builder) Step(label string) *StepBuilder {
	sb := &StepBuilder{
		step:    script.Step{Label: label},
		builder: b,
	}
	b.steps = append(b.steps, sb)
	return sb
}

// Build compiles the script into typed steps, in declaration order.
func (b *Builder) Build() []script.Step {
	steps := make([]script.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		steps = append(steps, sb.Build())
	}
	return steps
}

// Player builds the script and wraps it in a player.
func (b *Builder) Player(opts ...script.Option) *script.Player {
	return script.NewStepPlayer(b.Build(), opts...)
}
