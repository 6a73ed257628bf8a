package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeAdded        EventType = "node_added"
	EventNodeUpdated      EventType = "node_updated"
	EventNodeRemoved      EventType = "node_removed"
	EventChannelAdded     EventType = "channel_added"
	EventChannelUpdated   EventType = "channel_updated"
	EventChannelRemoved   EventType = "channel_removed"
	EventTransferStarted  EventType = "transfer_started"
	EventBeadArrived      EventType = "bead_arrived"
	EventTransferFinished EventType = "transfer_finished"
	EventStepPlayed       EventType = "step_played"
	EventNetworkRestored  EventType = "network_restored"
)

// Event is implemented by every event emitted by the network.
type Event interface {
	Base() EventBase
}

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// Base returns the common fields.
func (e EventBase) Base() EventBase { return e }

// NodeEvent reports a node creation, update or removal.
type NodeEvent struct {
	EventBase
	Node Node `json:"node"`
}

// ChannelEvent reports a channel creation, balance/highlight change or removal.
type ChannelEvent struct {
	EventBase
	Channel Channel `json:"channel"`
}

// TransferEvent reports the progress of a bead transfer.
// For EventBeadArrived, BeadIndex is the index the bead had before it moved.
type TransferEvent struct {
	EventBase
	TransferID string        `json:"transfer_id"`
	ChannelID  string        `json:"channel_id"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Count      int           `json:"count"`
	BeadIndex  int           `json:"bead_index,omitempty"`
	Indices    []int         `json:"indices,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Stagger    time.Duration `json:"stagger,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// StepEvent reports a played presentation step.
type StepEvent struct {
	EventBase
	Index int    `json:"index"`
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

// NetworkEvent reports that the whole network was replaced.
type NetworkEvent struct {
	EventBase
	Nodes    int `json:"nodes"`
	Channels int `json:"channels"`
}

// LifecycleHooks defines callbacks for network observability.
// Hooks run synchronously after the network lock has been released.
type LifecycleHooks struct {
	OnNodeChange    func(context.Context, *NodeEvent)
	OnChannelChange func(context.Context, *ChannelEvent)
	OnTransfer      func(context.Context, *TransferEvent)
	OnStep          func(context.Context, *StepEvent)
}

// Dispatch routes an event to the matching hook, if set.
func (h LifecycleHooks) Dispatch(ctx context.Context, e Event) {
	switch ev := e.(type) {
	case *NodeEvent:
		if h.OnNodeChange != nil {
			h.OnNodeChange(ctx, ev)
		}
	case *ChannelEvent:
		if h.OnChannelChange != nil {
			h.OnChannelChange(ctx, ev)
		}
	case *TransferEvent:
		if h.OnTransfer != nil {
			h.OnTransfer(ctx, ev)
		}
	case *StepEvent:
		if h.OnStep != nil {
			h.OnStep(ctx, ev)
		}
	}
}
