package network

import (
	"fmt"

	"github.com/aretw0/beadnet/pkg/domain"
)

// randomChannelSideMax bounds each side of a random channel.
const randomChannelSideMax = 4

// RandomNodeSpecs returns count node specs with unused random names and random balances.
// The specs are not added to the network.
func (n *Network) RandomNodeSpecs(count int) ([]domain.NodeSpec, error) {
	if count < 0 {
		return nil, fmt.Errorf("count %d: %w", count, domain.ErrInvalidArgument)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	picked := make(map[string]bool, count)
	specs := make([]domain.NodeSpec, 0, count)
	for i := 0; i < count; i++ {
		id := n.names.Unique(func(s string) bool {
			_, taken := n.nodes[s]
			return taken || picked[s]
		})
		picked[id] = true
		specs = append(specs, domain.NodeSpec{
			ID:              id,
			Balance:         domain.Int(n.rnd.IntN(randomBalanceMax)),
			OffchainBalance: domain.Int(0),
		})
	}
	return specs, nil
}

// RandomChannelSpecs returns count channel specs between random existing nodes.
// With unique set, it retries a bounded number of times to avoid self-links and
// pairs that already have a channel. The specs are not added to the network.
func (n *Network) RandomChannelSpecs(count int, unique bool) ([]domain.ChannelSpec, error) {
	if count < 0 {
		return nil, fmt.Errorf("count %d: %w", count, domain.ErrInvalidArgument)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.order) < 2 && count > 0 {
		return nil, fmt.Errorf("random channels need at least two nodes: %w", domain.ErrInvalidArgument)
	}

	specs := make([]domain.ChannelSpec, 0, count)
	for i := 0; i < count; i++ {
		source, target := n.randomNodeLocked(), n.randomNodeLocked()
		if unique {
			for attempt := 0; attempt <= len(n.channels)+len(specs) && n.pairTaken(source, target, specs); attempt++ {
				source, target = n.randomNodeLocked(), n.randomNodeLocked()
			}
		}

		sourceBalance := n.rnd.IntN(randomChannelSideMax)
		targetBalance := n.rnd.IntN(randomChannelSideMax)
		if sourceBalance == 0 && targetBalance == 0 {
			sourceBalance = n.rnd.IntN(randomChannelSideMax) + 1
		}
		specs = append(specs, domain.ChannelSpec{
			Source:        source,
			Target:        target,
			SourceBalance: sourceBalance,
			TargetBalance: targetBalance,
		})
	}
	return specs, nil
}

func (n *Network) pairTaken(source, target string, pending []domain.ChannelSpec) bool {
	if source == target || len(n.findChannels(source, target)) > 0 {
		return true
	}
	for _, s := range pending {
		if (s.Source == source && s.Target == target) || (s.Source == target && s.Target == source) {
			return true
		}
	}
	return false
}

// RandomNode returns a random node, or false if the network is empty.
func (n *Network) RandomNode() (domain.Node, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.order) == 0 {
		return domain.Node{}, false
	}
	return *n.nodes[n.randomNodeLocked()], true
}

// RandomChannel returns a random channel, or false if there is none.
func (n *Network) RandomChannel() (domain.Channel, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.channels) == 0 {
		return domain.Channel{}, false
	}
	return publicChannel(n.channels[n.rnd.IntN(len(n.channels))]), true
}

func (n *Network) randomNodeLocked() string {
	return n.order[n.rnd.IntN(len(n.order))]
}
