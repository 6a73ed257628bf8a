// Package tui plays a presentation in the terminal with Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	tea "github.com/charmbracelet/bubbletea"
)

// Stepper is what the view drives: a network with a presentation.
type Stepper interface {
	NextStep(ctx context.Context) (string, error)
	Snapshot() domain.Snapshot
	Subscribe(buffer int) (<-chan domain.Event, func())
}

type eventMsg struct{ event domain.Event }
type eventsClosedMsg struct{}
type frameMsg time.Time
type stepDoneMsg struct {
	label string
	err   error
}

// Model is the Bubble Tea model of a presentation.
type Model struct {
	ctx     context.Context
	engine  Stepper
	events  <-chan domain.Event
	cancel  func()
	render  func(string) (string, error)
	springs springField

	snapshot domain.Snapshot
	label    string
	errMsg   string
	playing  bool
	ended    bool
	width    int
}

// Option configures the Model.
type Option func(*Model)

// WithRenderer renders step labels, typically with NewRenderer.
func WithRenderer(render func(string) (string, error)) Option {
	return func(m *Model) {
		m.render = render
	}
}

// New subscribes to the engine and returns the model. Close releases the subscription.
func New(ctx context.Context, engine Stepper, opts ...Option) Model {
	events, cancel := engine.Subscribe(256)
	m := Model{
		ctx:      ctx,
		engine:   engine,
		events:   events,
		cancel:   cancel,
		springs:  newSpringField(),
		snapshot: engine.Snapshot(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Close unsubscribes from the engine.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init starts listening for network events and the animation clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), frameCmd())
}

func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: e}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) stepCmd() tea.Cmd {
	return func() tea.Msg {
		label, err := m.engine.NextStep(m.ctx)
		return stepDoneMsg{label: label, err: err}
	}
}

// Update handles key presses, network events and animation frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "n", " ", "enter", "right":
			if m.playing || m.ended {
				return m, nil
			}
			m.playing = true
			m.errMsg = ""
			return m, m.stepCmd()
		}
		return m, nil

	case stepDoneMsg:
		m.playing = false
		switch {
		case errors.Is(msg.err, domain.ErrPresentationEnded):
			m.ended = true
		case msg.err != nil && msg.label == "":
			m.errMsg = msg.err.Error()
		default:
			m.label = msg.label
			if msg.err != nil {
				m.errMsg = msg.err.Error()
			}
		}
		return m, nil

	case eventMsg:
		m.snapshot = m.engine.Snapshot()
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case frameMsg:
		alive := make(map[string]bool, len(m.snapshot.Channels))
		for _, ch := range m.snapshot.Channels {
			alive[ch.ID] = true
			m.springs.step(ch.ID, float64(ch.SourceBalance))
		}
		m.springs.prune(alive)
		return m, frameCmd()
	}
	return m, nil
}

// View renders the nodes, the channels with their beads and the status line.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("beadnet"))
	b.WriteString("\n\n")

	switch {
	case m.ended:
		b.WriteString(stepStyle.Render("The presentation has ended."))
	case m.label != "":
		b.WriteString(m.renderLabel(m.label))
	default:
		b.WriteString(stepStyle.Render("Press n to play the first step."))
	}
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, node := range m.snapshot.Nodes {
		fmt.Fprintf(&b, "%s %s\n", nodeStyle.Render(node.ID),
			balanceStyle.Render(fmt.Sprintf("free %d  offchain %d", node.Balance, node.OffchainBalance)))
	}
	if len(m.snapshot.Nodes) > 0 {
		b.WriteString("\n")
	}
	for _, ch := range m.snapshot.Channels {
		b.WriteString(m.channelLine(ch))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n/space next step  q quit"))
	return b.String()
}

func (m Model) renderLabel(label string) string {
	if m.render == nil {
		return stepStyle.Render(label)
	}
	out, err := m.render(label)
	if err != nil {
		return stepStyle.Render(label)
	}
	return strings.TrimSpace(out)
}

// channelLine draws the beads of a channel: filled beads sit on the source
// side, hollow ones on the target side. The boundary follows its spring.
func (m Model) channelLine(ch domain.Channel) string {
	boundary := float64(ch.SourceBalance)
	if pos, ok := m.springs.position(ch.ID); ok {
		boundary = pos
	}
	filled := int(math.Round(math.Max(0, math.Min(boundary, float64(ch.Capacity())))))

	beads := strings.Repeat("●", filled) + strings.Repeat("○", ch.Capacity()-filled)
	if ch.Highlighted {
		beads = highlightStyle.Render(beads)
	}
	return fmt.Sprintf("%s %s %s %s",
		nodeStyle.Render(ch.Source), beads, nodeStyle.Render(ch.Target),
		balanceStyle.Render(fmt.Sprintf("%d:%d", ch.SourceBalance, ch.TargetBalance)))
}
