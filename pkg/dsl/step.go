package dsl

import (
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/script"
)

// StepBuilder provides a fluent API for the commands of one step.
type StepBuilder struct {
	step    script.Step
	builder *Builder
}

func (s *StepBuilder) add(cmd script.Command) *StepBuilder {
	s.step.Commands = append(s.step.Commands, cmd)
	return s
}

// AddNode adds a node with the given free balance.
func (s *StepBuilder) AddNode(id string, balance int) *StepBuilder {
	return s.add(script.AddNode{Node: domain.NodeSpec{ID: id, Balance: domain.Int(balance)}})
}

// AddNodeSpec adds a node described by a full spec.
func (s *StepBuilder) AddNodeSpec(spec domain.NodeSpec) *StepBuilder {
	return s.add(script.AddNode{Node: spec})
}

// AddNodes adds several nodes in one command.
func (s *StepBuilder) AddNodes(specs ...domain.NodeSpec) *StepBuilder {
	return s.add(script.AddNodes{Nodes: specs})
}

// RemoveNode removes a node and its channels.
func (s *StepBuilder) RemoveNode(id string) *StepBuilder {
	return s.add(script.RemoveNode{ID: id})
}

// UpdateNode changes the free balance and/or color of a node.
func (s *StepBuilder) UpdateNode(id string, update domain.NodeUpdate) *StepBuilder {
	return s.add(script.UpdateNode{ID: id, Update: update})
}

// OpenChannel adds a channel funded by both sides.
func (s *StepBuilder) OpenChannel(source, target string, sourceBalance, targetBalance int) *StepBuilder {
	return s.add(script.AddChannel{Channel: domain.ChannelSpec{
		Source:        source,
		Target:        target,
		SourceBalance: sourceBalance,
		TargetBalance: targetBalance,
	}})
}

// OpenChannels adds several channels in one command.
func (s *StepBuilder) OpenChannels(specs ...domain.ChannelSpec) *StepBuilder {
	return s.add(script.AddChannels{Channels: specs})
}

// CloseChannel removes the channel going from source to target.
func (s *StepBuilder) CloseChannel(source, target string) *StepBuilder {
	return s.add(script.RemoveChannel{Source: source, Target: target})
}

// FundSource moves amount from the channel source's free balance into the channel.
// A negative amount withdraws.
func (s *StepBuilder) FundSource(source, target string, amount int) *StepBuilder {
	return s.add(script.ChangeChannelSourceBalance{Source: source, Target: target, Amount: amount})
}

// FundTarget is FundSource for the channel target.
func (s *StepBuilder) FundTarget(source, target string, amount int) *StepBuilder {
	return s.add(script.ChangeChannelTargetBalance{Source: source, Target: target, Amount: amount})
}

// Highlight turns the channel highlight on.
func (s *StepBuilder) Highlight(source, target string) *StepBuilder {
	on := true
	return s.add(script.HighlightChannel{Source: source, Target: target, State: &on})
}

// Unhighlight turns the channel highlight off.
func (s *StepBuilder) Unhighlight(source, target string) *StepBuilder {
	off := false
	return s.add(script.HighlightChannel{Source: source, Target: target, State: &off})
}

// ToggleHighlight flips the channel highlight.
func (s *StepBuilder) ToggleHighlight(source, target string) *StepBuilder {
	return s.add(script.HighlightChannel{Source: source, Target: target})
}

// Move starts moving count beads from source to target without waiting.
func (s *StepBuilder) Move(source, target string, count int) *StepBuilder {
	return s.add(script.MoveBeads{Source: source, Target: target, Count: count})
}

// MoveAndWait moves count beads and holds the step until the last one arrived.
func (s *StepBuilder) MoveAndWait(source, target string, count int) *StepBuilder {
	return s.add(script.MoveBeads{Source: source, Target: target, Count: count, Wait: true})
}

// Step starts the next step, allowing a single chain for the whole script.
func (s *StepBuilder) Step(label string) *StepBuilder {
	return s.builder.Step(label)
}

// Build returns the underlying script.Step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() script.Step {
	step := s.step
	step.Commands = append([]script.Command(nil), s.step.Commands...)
	return step
}

// Builder returns the script builder the step belongs to.
func (s *StepBuilder) Builder() *Builder {
	return s.builder
}
