package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/beadnet/pkg/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStepper struct {
	labels   []string
	snapshot domain.Snapshot
	events   chan domain.Event
}

func (f *fakeStepper) NextStep(ctx context.Context) (string, error) {
	if len(f.labels) == 0 {
		return "", domain.ErrPresentationEnded
	}
	label := f.labels[0]
	f.labels = f.labels[1:]
	return label, nil
}

func (f *fakeStepper) Snapshot() domain.Snapshot { return f.snapshot }

func (f *fakeStepper) Subscribe(int) (<-chan domain.Event, func()) {
	return f.events, func() {}
}

func newFake() *fakeStepper {
	return &fakeStepper{
		labels: []string{"Alice pays Bob"},
		snapshot: domain.Snapshot{
			Nodes: []domain.Node{{ID: "alice", Balance: 5, OffchainBalance: 3}, {ID: "bob", Balance: 8, OffchainBalance: 2}},
			Channels: []domain.Channel{
				{ID: "channelalicebob", Source: "alice", Target: "bob", SourceBalance: 3, TargetBalance: 2},
			},
		},
		events: make(chan domain.Event, 1),
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_PlaysSteps(t *testing.T) {
	m := New(context.Background(), newFake())
	assert.Contains(t, m.View(), "Press n")

	m, cmd := update(t, m, key("n"))
	require.NotNil(t, cmd)
	assert.True(t, m.playing)

	_, ignored := update(t, m, key("n"))
	assert.Nil(t, ignored)

	m, _ = update(t, m, cmd())
	assert.False(t, m.playing)
	assert.Contains(t, m.View(), "Alice pays Bob")

	m, cmd = update(t, m, key(" "))
	m, _ = update(t, m, cmd())
	assert.True(t, m.ended)
	assert.Contains(t, m.View(), "has ended")

	_, cmd = update(t, m, key("n"))
	assert.Nil(t, cmd)
}

func TestModel_StepErrors(t *testing.T) {
	m := New(context.Background(), newFake())

	m, _ = update(t, m, stepDoneMsg{label: "broken", err: errors.New("node x: not found")})
	view := m.View()
	assert.Contains(t, view, "broken")
	assert.Contains(t, view, "node x: not found")

	m, _ = update(t, m, stepDoneMsg{err: errors.New("player has no target")})
	assert.Contains(t, m.View(), "player has no target")
	assert.False(t, m.ended)
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), newFake())
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_EventsRefreshSnapshot(t *testing.T) {
	fake := newFake()
	m := New(context.Background(), fake)
	assert.Contains(t, m.View(), "●●●○○")

	fake.snapshot.Channels[0].SourceBalance = 1
	fake.snapshot.Channels[0].TargetBalance = 4
	fake.events <- &domain.ChannelEvent{EventBase: domain.EventBase{Type: domain.EventChannelUpdated}}

	msg := waitForEvent(fake.events)()
	m, cmd := update(t, m, msg)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "1:4")
}

func TestModel_SpringsFollowBalances(t *testing.T) {
	fake := newFake()
	m := New(context.Background(), fake)

	m, _ = update(t, m, frameMsg{})
	pos, ok := m.springs.position("channelalicebob")
	require.True(t, ok)
	assert.InDelta(t, 3.0, pos, 0.001)

	fake.snapshot.Channels[0].SourceBalance = 0
	fake.snapshot.Channels[0].TargetBalance = 5
	m.snapshot = fake.Snapshot()

	for i := 0; i < 5; i++ {
		m, _ = update(t, m, frameMsg{})
	}
	moving, _ := m.springs.position("channelalicebob")
	assert.Less(t, moving, 3.0)

	for i := 0; i < frameRate*5; i++ {
		m, _ = update(t, m, frameMsg{})
	}
	settled, _ := m.springs.position("channelalicebob")
	assert.InDelta(t, 0.0, settled, 0.05)
	assert.True(t, strings.Contains(m.View(), "○○○○○"))

	m.snapshot = domain.Snapshot{}
	m, _ = update(t, m, frameMsg{})
	_, ok = m.springs.position("channelalicebob")
	assert.False(t, ok)
}
