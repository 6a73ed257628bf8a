package network

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/internal/names"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/benbjohnson/clock"
)

// randomBalanceMax bounds the random free balance given to nodes created without one.
const randomBalanceMax = 100

// channel is the internal channel record. The embedded domain.Channel holds
// the public state; the reservation counters track beads that in-flight
// transfers are about to move off each side.
type channel struct {
	domain.Channel
	reservedSource int
	reservedTarget int
	removed        bool
}

// Network is the authoritative aggregate of nodes and channels.
// Every exported method is safe for concurrent use.
type Network struct {
	mu        sync.Mutex
	nodes     map[string]*domain.Node
	order     []string
	channels  []*channel
	transfers map[string]*Transfer

	clock  clock.Clock
	rnd    *rand.Rand
	names  NameGenerator
	colors domain.ColorScheme
	timing Timing
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	subs   *broadcaster
}

// NameGenerator picks names for nodes added without an id.
type NameGenerator interface {
	// Unique returns a name for which taken reports false.
	Unique(taken func(string) bool) string
}

// Option configures the Network.
type Option func(*Network)

// WithClock sets the clock used to schedule bead arrivals.
func WithClock(c clock.Clock) Option {
	return func(n *Network) {
		n.clock = c
	}
}

// WithRand sets the random source used for default balances and names.
func WithRand(r *rand.Rand) Option {
	return func(n *Network) {
		n.rnd = r
	}
}

// WithNameGenerator replaces the default random name generator.
func WithNameGenerator(g NameGenerator) Option {
	return func(n *Network) {
		n.names = g
	}
}

// WithColorScheme sets the palette used to color new nodes.
func WithColorScheme(scheme domain.ColorScheme) Option {
	return func(n *Network) {
		n.colors = scheme
	}
}

// WithTiming sets the bead animation schedule.
func WithTiming(t Timing) Option {
	return func(n *Network) {
		n.timing = t
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Network) {
		n.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Network) {
		n.logger = logger
	}
}

// New creates an empty network.
func New(opts ...Option) *Network {
	n := &Network{
		nodes:     make(map[string]*domain.Node),
		transfers: make(map[string]*Transfer),
		clock:     clock.New(),
		colors:    domain.PaletteScheme(domain.Category20),
		timing:    DefaultTiming,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.rnd == nil {
		n.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if n.names == nil {
		n.names = names.New(n.rnd)
	}
	n.subs = newBroadcaster(n.logger)
	return n
}

// Subscribe returns a channel receiving every event emitted by the network.
// Events are dropped for subscribers whose buffer is full.
// The returned function unsubscribes and closes the channel.
func (n *Network) Subscribe(buffer int) (<-chan domain.Event, func()) {
	return n.subs.Subscribe(buffer)
}

// AddNode appends a node, filling defaults for missing fields.
func (n *Network) AddNode(ctx context.Context, spec domain.NodeSpec) (domain.Node, error) {
	n.mu.Lock()
	node, err := n.addNodeLocked(spec)
	n.mu.Unlock()
	if err != nil {
		return domain.Node{}, err
	}

	n.logger.Debug("node added", "node_id", node.ID, "balance", node.Balance)
	n.publish(ctx, n.nodeEvent(domain.EventNodeAdded, node))
	return node, nil
}

// AddNodes adds nodes in order and stops at the first failure.
func (n *Network) AddNodes(ctx context.Context, specs []domain.NodeSpec) ([]domain.Node, error) {
	added := make([]domain.Node, 0, len(specs))
	for i, spec := range specs {
		node, err := n.AddNode(ctx, spec)
		if err != nil {
			return added, fmt.Errorf("node %d: %w", i, err)
		}
		added = append(added, node)
	}
	return added, nil
}

func (n *Network) addNodeLocked(spec domain.NodeSpec) (domain.Node, error) {
	node := domain.Node{
		ID:    spec.ID,
		Color: spec.Color,
	}

	if node.ID == "" {
		node.ID = n.names.Unique(func(s string) bool {
			_, taken := n.nodes[s]
			return taken
		})
	} else if _, taken := n.nodes[node.ID]; taken {
		return domain.Node{}, fmt.Errorf("node %q: %w", node.ID, domain.ErrDuplicateNode)
	}

	if spec.Balance != nil {
		if *spec.Balance < 0 {
			return domain.Node{}, fmt.Errorf("node %q: balance %d: %w", node.ID, *spec.Balance, domain.ErrInvalidArgument)
		}
		node.Balance = *spec.Balance
	} else {
		node.Balance = n.rnd.IntN(randomBalanceMax)
	}

	if spec.OffchainBalance != nil {
		if *spec.OffchainBalance < 0 {
			return domain.Node{}, fmt.Errorf("node %q: offchain balance %d: %w", node.ID, *spec.OffchainBalance, domain.ErrInvalidArgument)
		}
		node.OffchainBalance = *spec.OffchainBalance
	}

	if node.Color == "" {
		node.Color = n.colors(len(n.order)%domain.PaletteSize + 1)
	}

	n.nodes[node.ID] = &node
	n.order = append(n.order, node.ID)
	return node, nil
}

// UpdateNode changes the mutable properties of a node.
func (n *Network) UpdateNode(ctx context.Context, id string, update domain.NodeUpdate) (domain.Node, error) {
	n.mu.Lock()
	node, ok := n.nodes[id]
	if !ok {
		n.mu.Unlock()
		return domain.Node{}, fmt.Errorf("node %q: %w", id, domain.ErrNotFound)
	}
	if update.Balance != nil && *update.Balance < 0 {
		n.mu.Unlock()
		return domain.Node{}, fmt.Errorf("node %q: balance %d: %w", id, *update.Balance, domain.ErrInvalidArgument)
	}
	if update.Balance != nil {
		node.Balance = *update.Balance
	}
	if update.Color != nil {
		node.Color = *update.Color
	}
	updated := *node
	n.mu.Unlock()

	n.publish(ctx, n.nodeEvent(domain.EventNodeUpdated, updated))
	return updated, nil
}

// RemoveNode removes a node and every channel it belongs to.
// The surviving endpoint of each removed channel gets its locked funds back.
func (n *Network) RemoveNode(ctx context.Context, id string) error {
	n.mu.Lock()
	node, ok := n.nodes[id]
	if !ok {
		n.mu.Unlock()
		return fmt.Errorf("node %q: %w", id, domain.ErrNotFound)
	}

	var events []domain.Event
	kept := n.channels[:0]
	for _, ch := range n.channels {
		if ch.Source != id && ch.Target != id {
			kept = append(kept, ch)
			continue
		}
		ch.removed = true
		if ch.Source == id {
			if other, ok := n.nodes[ch.Target]; ok {
				other.Balance += ch.TargetBalance
				other.OffchainBalance -= ch.TargetBalance
				events = append(events, n.nodeEvent(domain.EventNodeUpdated, *other))
			}
		} else {
			if other, ok := n.nodes[ch.Source]; ok {
				other.Balance += ch.SourceBalance
				other.OffchainBalance -= ch.SourceBalance
				events = append(events, n.nodeEvent(domain.EventNodeUpdated, *other))
			}
		}
		events = append(events, n.channelEvent(domain.EventChannelRemoved, ch))
	}
	n.channels = kept

	delete(n.nodes, id)
	for i, nid := range n.order {
		if nid == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	events = append(events, n.nodeEvent(domain.EventNodeRemoved, *node))
	n.mu.Unlock()

	n.logger.Debug("node removed", "node_id", id)
	n.publish(ctx, events...)
	return nil
}

// AddChannel opens a channel, locking funds of both endpoints.
func (n *Network) AddChannel(ctx context.Context, spec domain.ChannelSpec) (domain.Channel, error) {
	n.mu.Lock()
	ch, source, target, err := n.addChannelLocked(spec)
	if err != nil {
		n.mu.Unlock()
		return domain.Channel{}, err
	}
	out := publicChannel(ch)
	events := []domain.Event{
		n.nodeEvent(domain.EventNodeUpdated, source),
		n.nodeEvent(domain.EventNodeUpdated, target),
		n.channelEvent(domain.EventChannelAdded, ch),
	}
	n.mu.Unlock()

	n.logger.Debug("channel added", "channel_id", out.ID, "source_balance", out.SourceBalance, "target_balance", out.TargetBalance)
	n.publish(ctx, events...)
	return out, nil
}

// AddChannels opens channels in order and stops at the first failure.
func (n *Network) AddChannels(ctx context.Context, specs []domain.ChannelSpec) ([]domain.Channel, error) {
	added := make([]domain.Channel, 0, len(specs))
	for i, spec := range specs {
		ch, err := n.AddChannel(ctx, spec)
		if err != nil {
			return added, fmt.Errorf("channel %d: %w", i, err)
		}
		added = append(added, ch)
	}
	return added, nil
}

func (n *Network) addChannelLocked(spec domain.ChannelSpec) (*channel, domain.Node, domain.Node, error) {
	if spec.SourceBalance < 0 || spec.TargetBalance < 0 {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("channel %s-%s: negative balance: %w", spec.Source, spec.Target, domain.ErrInvalidArgument)
	}
	if spec.SourceBalance == 0 && spec.TargetBalance == 0 {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("channel %s-%s: a channel needs a source and/or target balance: %w", spec.Source, spec.Target, domain.ErrInvalidChannel)
	}

	source, ok := n.nodes[spec.Source]
	if !ok {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("source node %q: %w", spec.Source, domain.ErrNotFound)
	}
	target, ok := n.nodes[spec.Target]
	if !ok {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("target node %q: %w", spec.Target, domain.ErrNotFound)
	}
	if source == target {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("channel %s-%s: endpoints must differ: %w", spec.Source, spec.Target, domain.ErrInvalidChannel)
	}
	if len(n.findChannels(spec.Source, spec.Target)) > 0 {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("channel %s-%s: %w", spec.Source, spec.Target, domain.ErrDuplicateChannel)
	}
	if source.Balance < spec.SourceBalance {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("source node %q has %d, needs %d: %w", source.ID, source.Balance, spec.SourceBalance, domain.ErrInsufficientFunds)
	}
	if target.Balance < spec.TargetBalance {
		return nil, domain.Node{}, domain.Node{}, fmt.Errorf("target node %q has %d, needs %d: %w", target.ID, target.Balance, spec.TargetBalance, domain.ErrInsufficientFunds)
	}

	source.Balance -= spec.SourceBalance
	source.OffchainBalance += spec.SourceBalance
	target.Balance -= spec.TargetBalance
	target.OffchainBalance += spec.TargetBalance

	ch := &channel{Channel: domain.Channel{
		ID:            n.uniqueChannelID(spec),
		Source:        source.ID,
		Target:        target.ID,
		SourceBalance: spec.SourceBalance,
		TargetBalance: spec.TargetBalance,
	}}
	ch.rederive()
	n.channels = append(n.channels, ch)
	return ch, *source, *target, nil
}

// RemoveChannel closes the channel going exactly from sourceID to targetID,
// returning the locked funds to both endpoints.
func (n *Network) RemoveChannel(ctx context.Context, sourceID, targetID string) error {
	n.mu.Lock()
	var events []domain.Event
	kept := n.channels[:0]
	for _, ch := range n.channels {
		if ch.Source != sourceID || ch.Target != targetID {
			kept = append(kept, ch)
			continue
		}
		ch.removed = true
		if source, ok := n.nodes[sourceID]; ok {
			source.Balance += ch.SourceBalance
			source.OffchainBalance -= ch.SourceBalance
			events = append(events, n.nodeEvent(domain.EventNodeUpdated, *source))
		}
		if target, ok := n.nodes[targetID]; ok {
			target.Balance += ch.TargetBalance
			target.OffchainBalance -= ch.TargetBalance
			events = append(events, n.nodeEvent(domain.EventNodeUpdated, *target))
		}
		events = append(events, n.channelEvent(domain.EventChannelRemoved, ch))
	}
	n.channels = kept
	n.mu.Unlock()

	if len(events) == 0 {
		return fmt.Errorf("channel %s->%s: %w", sourceID, targetID, domain.ErrNotFound)
	}
	n.publish(ctx, events...)
	return nil
}

// Channels returns every channel linking the two nodes, in either direction.
func (n *Network) Channels(sourceID, targetID string) []domain.Channel {
	n.mu.Lock()
	defer n.mu.Unlock()

	found := n.findChannels(sourceID, targetID)
	out := make([]domain.Channel, len(found))
	for i, ch := range found {
		out[i] = publicChannel(ch)
	}
	return out
}

// ChangeChannelSourceBalance moves funds between the channel's source node and its side of the channel.
// A positive amount moves free funds into the channel, a negative amount moves them back.
func (n *Network) ChangeChannelSourceBalance(ctx context.Context, sourceID, targetID string, amount int) (domain.Channel, error) {
	return n.changeSide(ctx, sourceID, targetID, amount, domain.BeadSource)
}

// ChangeChannelTargetBalance is ChangeChannelSourceBalance for the channel's target node.
func (n *Network) ChangeChannelTargetBalance(ctx context.Context, sourceID, targetID string, amount int) (domain.Channel, error) {
	return n.changeSide(ctx, sourceID, targetID, amount, domain.BeadTarget)
}

func (n *Network) changeSide(ctx context.Context, sourceID, targetID string, amount int, side domain.BeadState) (domain.Channel, error) {
	if amount == 0 {
		return domain.Channel{}, fmt.Errorf("amount must not be zero: %w", domain.ErrInvalidArgument)
	}

	n.mu.Lock()
	found := n.findChannels(sourceID, targetID)
	if len(found) == 0 {
		n.mu.Unlock()
		return domain.Channel{}, fmt.Errorf("channel %s-%s: %w", sourceID, targetID, domain.ErrNotFound)
	}
	ch := found[0]

	nodeID, balance, reserved := ch.Source, &ch.SourceBalance, ch.reservedSource
	if side == domain.BeadTarget {
		nodeID, balance, reserved = ch.Target, &ch.TargetBalance, ch.reservedTarget
	}
	node, ok := n.nodes[nodeID]
	if !ok {
		n.mu.Unlock()
		return domain.Channel{}, fmt.Errorf("node %q: %w", nodeID, domain.ErrNotFound)
	}

	if amount > 0 {
		if node.Balance < amount {
			n.mu.Unlock()
			return domain.Channel{}, fmt.Errorf("node %q has %d, cannot fund channel %s by %d: %w",
				nodeID, node.Balance, ch.ID, amount, domain.ErrInsufficientFunds)
		}
	} else if available := *balance - reserved; available < -amount {
		n.mu.Unlock()
		return domain.Channel{}, fmt.Errorf("%s side of channel %s has %d, cannot withdraw %d: %w",
			side, ch.ID, available, -amount, domain.ErrInsufficientFunds)
	}

	node.Balance -= amount
	node.OffchainBalance += amount
	*balance += amount
	ch.rederive()

	updated := *node
	evCh := n.channelEvent(domain.EventChannelUpdated, ch)
	out := publicChannel(ch)
	n.mu.Unlock()

	n.publish(ctx, n.nodeEvent(domain.EventNodeUpdated, updated), evCh)
	return out, nil
}

// HighlightChannel sets the highlighted flag of every channel between the two nodes.
// A nil state toggles the current flag.
func (n *Network) HighlightChannel(ctx context.Context, sourceID, targetID string, state *bool) error {
	n.mu.Lock()
	found := n.findChannels(sourceID, targetID)
	events := make([]domain.Event, 0, len(found))
	for _, ch := range found {
		if state != nil {
			ch.Highlighted = *state
		} else {
			ch.Highlighted = !ch.Highlighted
		}
		events = append(events, n.channelEvent(domain.EventChannelUpdated, ch))
	}
	n.mu.Unlock()

	if len(found) == 0 {
		return fmt.Errorf("channel %s-%s: %w", sourceID, targetID, domain.ErrNotFound)
	}
	n.publish(ctx, events...)
	return nil
}

// Node returns the node with the given id.
func (n *Network) Node(id string) (domain.Node, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	node, ok := n.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return *node, true
}

// Nodes returns every node in insertion order.
func (n *Network) Nodes() []domain.Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]domain.Node, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, *n.nodes[id])
	}
	return out
}

// ChannelCount returns the number of channels.
func (n *Network) ChannelCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.channels)
}

// Snapshot returns a detached copy of the network.
func (n *Network) Snapshot() domain.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := domain.Snapshot{
		Nodes:    make([]domain.Node, 0, len(n.order)),
		Channels: make([]domain.Channel, 0, len(n.channels)),
	}
	for _, id := range n.order {
		s.Nodes = append(s.Nodes, *n.nodes[id])
	}
	for _, ch := range n.channels {
		s.Channels = append(s.Channels, publicChannel(ch))
	}
	return s
}

// Restore replaces the whole network with the snapshot content.
// In-flight transfers end with domain.ErrNotFound at their next bead.
func (n *Network) Restore(ctx context.Context, s domain.Snapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	n.mu.Lock()
	for _, ch := range n.channels {
		ch.removed = true
	}
	n.nodes = make(map[string]*domain.Node, len(s.Nodes))
	n.order = make([]string, 0, len(s.Nodes))
	for _, node := range s.Nodes {
		node := node
		n.nodes[node.ID] = &node
		n.order = append(n.order, node.ID)
	}
	n.channels = make([]*channel, 0, len(s.Channels))
	for _, c := range s.Channels {
		ch := &channel{Channel: c}
		ch.rederive()
		n.channels = append(n.channels, ch)
	}
	n.mu.Unlock()

	n.logger.Info("network restored", "nodes", len(s.Nodes), "channels", len(s.Channels))
	n.publish(ctx, &domain.NetworkEvent{
		EventBase: n.base(domain.EventNetworkRestored),
		Nodes:     len(s.Nodes),
		Channels:  len(s.Channels),
	})
	return nil
}

// uniqueChannelID derives channel{source}{capacity}{target}{nonce}, omitting a zero nonce.
func (n *Network) uniqueChannelID(spec domain.ChannelSpec) string {
	base := "channel" + spec.Source + strconv.Itoa(spec.SourceBalance+spec.TargetBalance) + spec.Target
	id := base
	for nonce := 1; n.channelIDTaken(id); nonce++ {
		id = base + strconv.Itoa(nonce)
	}
	return id
}

func (n *Network) channelIDTaken(id string) bool {
	for _, ch := range n.channels {
		if ch.ID == id {
			return true
		}
	}
	return false
}

func (n *Network) findChannels(a, b string) []*channel {
	var found []*channel
	for _, ch := range n.channels {
		if ch.Connects(a, b) {
			found = append(found, ch)
		}
	}
	return found
}

func (ch *channel) rederive() {
	ch.Beads = domain.DeriveBeads(ch.ID, ch.SourceBalance, ch.TargetBalance)
}

func publicChannel(ch *channel) domain.Channel {
	out := ch.Channel
	out.Beads = append([]domain.Bead(nil), ch.Beads...)
	return out
}

func (n *Network) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: n.clock.Now(), Type: t}
}

func (n *Network) nodeEvent(t domain.EventType, node domain.Node) domain.Event {
	return &domain.NodeEvent{
		EventBase: n.base(t),
		Node:      node,
	}
}

// channelEvent copies ch; callers must hold n.mu.
func (n *Network) channelEvent(t domain.EventType, ch *channel) domain.Event {
	return &domain.ChannelEvent{
		EventBase: n.base(t),
		Channel:   publicChannel(ch),
	}
}

// Publish delivers an event raised outside the network, such as a played
// presentation step, to hooks and subscribers.
func (n *Network) Publish(ctx context.Context, e domain.Event) {
	n.publish(ctx, e)
}

// publish delivers events to hooks and subscribers. Must be called without holding n.mu.
func (n *Network) publish(ctx context.Context, events ...domain.Event) {
	for _, e := range events {
		n.hooks.Dispatch(ctx, e)
		n.subs.Broadcast(e)
	}
}
