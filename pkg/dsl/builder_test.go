package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/dsl"
	"github.com/aretw0/beadnet/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_KeepsDeclarationOrder(t *testing.T) {
	b := dsl.New()

	b.Step("first").
		AddNode("alice", 10).
		AddNode("bob", 5).
		Step("second").
		OpenChannel("alice", "bob", 3, 1).
		MoveAndWait("alice", "bob", 2)

	b.Step("").CloseChannel("alice", "bob")

	steps := b.Build()
	require.Len(t, steps, 3)
	assert.Equal(t, "first", steps[0].Label)
	assert.Equal(t, "second", steps[1].Label)
	assert.Empty(t, steps[2].Label)

	require.Len(t, steps[1].Commands, 2)
	assert.Equal(t, script.AddChannel{Channel: domain.ChannelSpec{Source: "alice", Target: "bob", SourceBalance: 3, TargetBalance: 1}}, steps[1].Commands[0])
	assert.Equal(t, script.MoveBeads{Source: "alice", Target: "bob", Count: 2, Wait: true}, steps[1].Commands[1])
	assert.Equal(t, script.RemoveChannel{Source: "alice", Target: "bob"}, steps[2].Commands[0])
}

func TestBuilder_Highlight(t *testing.T) {
	step := dsl.New().Step("x").
		Highlight("a", "b").
		Unhighlight("a", "b").
		ToggleHighlight("a", "b").
		Build()

	on := step.Commands[0].(script.HighlightChannel)
	off := step.Commands[1].(script.HighlightChannel)
	toggle := step.Commands[2].(script.HighlightChannel)
	require.NotNil(t, on.State)
	assert.True(t, *on.State)
	require.NotNil(t, off.State)
	assert.False(t, *off.State)
	assert.Nil(t, toggle.State)
}

func TestDemo_PlaysToTheEnd(t *testing.T) {
	player := dsl.Demo().Player(script.WithTarget(nopTarget{}))
	ctx := context.Background()

	for i := 0; i < player.Len(); i++ {
		label, err := player.NextStep(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, label)
	}
	_, err := player.NextStep(ctx)
	assert.ErrorIs(t, err, domain.ErrPresentationEnded)
}

type nopTarget struct{}

func (nopTarget) AddNode(context.Context, domain.NodeSpec) (domain.Node, error) {
	return domain.Node{}, nil
}

func (nopTarget) AddNodes(context.Context, []domain.NodeSpec) ([]domain.Node, error) {
	return nil, nil
}

func (nopTarget) RemoveNode(context.Context, string) error { return nil }

func (nopTarget) AddChannel(context.Context, domain.ChannelSpec) (domain.Channel, error) {
	return domain.Channel{}, nil
}

func (nopTarget) AddChannels(context.Context, []domain.ChannelSpec) ([]domain.Channel, error) {
	return nil, nil
}

func (nopTarget) RemoveChannel(context.Context, string, string) error { return nil }

func (nopTarget) ChangeChannelSourceBalance(context.Context, string, string, int) (domain.Channel, error) {
	return domain.Channel{}, nil
}

func (nopTarget) ChangeChannelTargetBalance(context.Context, string, string, int) (domain.Channel, error) {
	return domain.Channel{}, nil
}

func (nopTarget) HighlightChannel(context.Context, string, string, *bool) error { return nil }

func (nopTarget) UpdateNode(context.Context, string, domain.NodeUpdate) (domain.Node, error) {
	return domain.Node{}, nil
}

func (nopTarget) MoveBeads(context.Context, string, string, int, bool) error { return nil }
