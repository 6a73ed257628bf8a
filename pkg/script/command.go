package script

import (
	"context"

	"github.com/aretw0/beadnet/pkg/domain"
)

// Command names accepted in scripts.
const (
	CmdAddNode                    = "ADD_NODE"
	CmdAddNodes                   = "ADD_NODES"
	CmdRemoveNode                 = "REMOVE_NODE"
	CmdAddChannel                 = "ADD_CHANNEL"
	CmdAddChannels                = "ADD_CHANNELS"
	CmdRemoveChannel              = "REMOVE_CHANNEL"
	CmdChangeChannelSourceBalance = "CHANGE_CHANNEL_SOURCE_BALANCE"
	CmdChangeChannelTargetBalance = "CHANGE_CHANNEL_TARGET_BALANCE"
	CmdHighlightChannel           = "HIGHLIGHT_CHANNEL"
	CmdMoveBeads                  = "MOVE_BEADS"
	CmdUpdateNode                 = "UPDATE_NODE"
)

// Target receives the commands of a script.
type Target interface {
	AddNode(ctx context.Context, spec domain.NodeSpec) (domain.Node, error)
	AddNodes(ctx context.Context, specs []domain.NodeSpec) ([]domain.Node, error)
	RemoveNode(ctx context.Context, id string) error
	AddChannel(ctx context.Context, spec domain.ChannelSpec) (domain.Channel, error)
	AddChannels(ctx context.Context, specs []domain.ChannelSpec) ([]domain.Channel, error)
	RemoveChannel(ctx context.Context, sourceID, targetID string) error
	ChangeChannelSourceBalance(ctx context.Context, sourceID, targetID string, amount int) (domain.Channel, error)
	ChangeChannelTargetBalance(ctx context.Context, sourceID, targetID string, amount int) (domain.Channel, error)
	HighlightChannel(ctx context.Context, sourceID, targetID string, state *bool) error
	UpdateNode(ctx context.Context, id string, update domain.NodeUpdate) (domain.Node, error)
	// MoveBeads starts a transfer. With wait set it returns once the last bead arrived.
	MoveBeads(ctx context.Context, sourceID, targetID string, count int, wait bool) error
}

// Command is one of the closed set of script commands.
type Command interface {
	// Name returns the script name of the command, e.g. ADD_NODE.
	Name() string
	isCommand()
}

type AddNode struct {
	Node domain.NodeSpec
}

type AddNodes struct {
	Nodes []domain.NodeSpec
}

type RemoveNode struct {
	ID string
}

type AddChannel struct {
	Channel domain.ChannelSpec
}

type AddChannels struct {
	Channels []domain.ChannelSpec
}

type RemoveChannel struct {
	Source string
	Target string
}

type ChangeChannelSourceBalance struct {
	Source string
	Target string
	Amount int
}

type ChangeChannelTargetBalance struct {
	Source string
	Target string
	Amount int
}

// HighlightChannel toggles the flag when State is nil.
type HighlightChannel struct {
	Source string
	Target string
	State  *bool
}

// MoveBeads blocks the step until the transfer finished when Wait is set.
type MoveBeads struct {
	Source string
	Target string
	Count  int
	Wait   bool
}

type UpdateNode struct {
	ID     string
	Update domain.NodeUpdate
}

func (AddNode) Name() string                    { return CmdAddNode }
func (AddNodes) Name() string                   { return CmdAddNodes }
func (RemoveNode) Name() string                 { return CmdRemoveNode }
func (AddChannel) Name() string                 { return CmdAddChannel }
func (AddChannels) Name() string                { return CmdAddChannels }
func (RemoveChannel) Name() string              { return CmdRemoveChannel }
func (ChangeChannelSourceBalance) Name() string { return CmdChangeChannelSourceBalance }
func (ChangeChannelTargetBalance) Name() string { return CmdChangeChannelTargetBalance }
func (HighlightChannel) Name() string           { return CmdHighlightChannel }
func (MoveBeads) Name() string                  { return CmdMoveBeads }
func (UpdateNode) Name() string                 { return CmdUpdateNode }

func (AddNode) isCommand()                    {}
func (AddNodes) isCommand()                   {}
func (RemoveNode) isCommand()                 {}
func (AddChannel) isCommand()                 {}
func (AddChannels) isCommand()                {}
func (RemoveChannel) isCommand()              {}
func (ChangeChannelSourceBalance) isCommand() {}
func (ChangeChannelTargetBalance) isCommand() {}
func (HighlightChannel) isCommand()           {}
func (MoveBeads) isCommand()                  {}
func (UpdateNode) isCommand()                 {}

// Step is a labelled group of commands played together.
type Step struct {
	Label    string
	Commands []Command
}

// Dispatch runs a single command against the target.
func Dispatch(ctx context.Context, target Target, cmd Command) error {
	var err error
	switch c := cmd.(type) {
	case AddNode:
		_, err = target.AddNode(ctx, c.Node)
	case AddNodes:
		_, err = target.AddNodes(ctx, c.Nodes)
	case RemoveNode:
		err = target.RemoveNode(ctx, c.ID)
	case AddChannel:
		_, err = target.AddChannel(ctx, c.Channel)
	case AddChannels:
		_, err = target.AddChannels(ctx, c.Channels)
	case RemoveChannel:
		err = target.RemoveChannel(ctx, c.Source, c.Target)
	case ChangeChannelSourceBalance:
		_, err = target.ChangeChannelSourceBalance(ctx, c.Source, c.Target, c.Amount)
	case ChangeChannelTargetBalance:
		_, err = target.ChangeChannelTargetBalance(ctx, c.Source, c.Target, c.Amount)
	case HighlightChannel:
		err = target.HighlightChannel(ctx, c.Source, c.Target, c.State)
	case MoveBeads:
		err = target.MoveBeads(ctx, c.Source, c.Target, c.Count, c.Wait)
	case UpdateNode:
		_, err = target.UpdateNode(ctx, c.ID, c.Update)
	default:
		return &ValidationError{Command: cmd.Name(), Reason: "unsupported command"}
	}
	return err
}
