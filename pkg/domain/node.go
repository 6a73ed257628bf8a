package domain

// Node is a participant of the network.
type Node struct {
	// ID uniquely identifies the node.
	ID string `json:"id" yaml:"id"`

	// Balance is the free (on-chain) balance, available to open or top up channels.
	Balance int `json:"balance" yaml:"balance"`

	// OffchainBalance is the sum of the node's funds locked in channels.
	OffchainBalance int `json:"offchainBalance" yaml:"offchainBalance"`

	// Color is an opaque display tag assigned at creation.
	Color string `json:"color" yaml:"color"`
}

// NodeSpec describes a node to add. Nil pointers mean "use the default".
type NodeSpec struct {
	ID              string `json:"id,omitempty" mapstructure:"id"`
	Balance         *int   `json:"balance,omitempty" mapstructure:"balance"`
	OffchainBalance *int   `json:"offchainBalance,omitempty" mapstructure:"offchainBalance"`
	Color           string `json:"color,omitempty" mapstructure:"color"`
}

// NodeUpdate lists the mutable properties of a node.
// OffchainBalance is absent on purpose: it is derived from the node's channels.
type NodeUpdate struct {
	Balance *int    `json:"balance,omitempty" mapstructure:"balance"`
	Color   *string `json:"color,omitempty" mapstructure:"color"`
}

// Int returns a pointer to v. Handy for NodeSpec literals.
func Int(v int) *int {
	return &v
}
