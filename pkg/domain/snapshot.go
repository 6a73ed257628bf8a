package domain

import (
	"errors"
	"fmt"
)

// Snapshot is a detached copy of the network, safe to hand to render adapters and stores.
type Snapshot struct {
	Nodes    []Node    `json:"nodes" yaml:"nodes"`
	Channels []Channel `json:"channels" yaml:"channels"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes:    make([]Node, len(s.Nodes)),
		Channels: make([]Channel, len(s.Channels)),
	}
	copy(out.Nodes, s.Nodes)
	for i, ch := range s.Channels {
		ch.Beads = append([]Bead(nil), ch.Beads...)
		out.Channels[i] = ch
	}
	return out
}

// Node returns the node with the given id.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Channel returns the first channel linking a and b in either direction.
func (s Snapshot) Channel(a, b string) (Channel, bool) {
	for _, ch := range s.Channels {
		if ch.Connects(a, b) {
			return ch, true
		}
	}
	return Channel{}, false
}

// Validate checks the structural invariants of the snapshot:
// unique ids, known endpoints, non-negative balances and, for every node,
// OffchainBalance equal to the sum of its channel sides.
func (s Snapshot) Validate() error {
	var errs []error

	locked := make(map[string]int, len(s.Nodes))
	for _, n := range s.Nodes {
		if _, dup := locked[n.ID]; dup {
			errs = append(errs, fmt.Errorf("node %q: %w", n.ID, ErrDuplicateNode))
			continue
		}
		locked[n.ID] = 0
		if n.Balance < 0 || n.OffchainBalance < 0 {
			errs = append(errs, fmt.Errorf("node %q: negative balance: %w", n.ID, ErrInvalidArgument))
		}
	}

	channelIDs := make(map[string]struct{}, len(s.Channels))
	for _, ch := range s.Channels {
		if _, dup := channelIDs[ch.ID]; dup {
			errs = append(errs, fmt.Errorf("channel %q: %w", ch.ID, ErrDuplicateChannel))
		}
		channelIDs[ch.ID] = struct{}{}

		if ch.SourceBalance < 0 || ch.TargetBalance < 0 {
			errs = append(errs, fmt.Errorf("channel %q: negative balance: %w", ch.ID, ErrInvalidArgument))
		}
		if _, ok := locked[ch.Source]; !ok {
			errs = append(errs, fmt.Errorf("channel %q: source %q: %w", ch.ID, ch.Source, ErrNotFound))
		} else {
			locked[ch.Source] += ch.SourceBalance
		}
		if _, ok := locked[ch.Target]; !ok {
			errs = append(errs, fmt.Errorf("channel %q: target %q: %w", ch.ID, ch.Target, ErrNotFound))
		} else {
			locked[ch.Target] += ch.TargetBalance
		}
	}

	for _, n := range s.Nodes {
		if sum, ok := locked[n.ID]; ok && sum != n.OffchainBalance {
			errs = append(errs, fmt.Errorf("node %q: offchain balance %d, channels hold %d: %w",
				n.ID, n.OffchainBalance, sum, ErrInvalidArgument))
		}
	}

	return errors.Join(errs...)
}
