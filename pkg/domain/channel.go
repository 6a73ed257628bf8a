package domain

// Channel is a funded link between two nodes.
type Channel struct {
	ID            string `json:"id" yaml:"id"`
	Source        string `json:"source" yaml:"source"`
	Target        string `json:"target" yaml:"target"`
	SourceBalance int    `json:"sourceBalance" yaml:"sourceBalance"`
	TargetBalance int    `json:"targetBalance" yaml:"targetBalance"`
	Highlighted   bool   `json:"highlighted" yaml:"highlighted"`

	// Beads is derived from the balances; see DeriveBeads.
	Beads []Bead `json:"beads" yaml:"-"`
}

// Capacity returns the total funds held by the channel.
func (c Channel) Capacity() int {
	return c.SourceBalance + c.TargetBalance
}

// Connects reports whether the channel links a and b, in either direction.
func (c Channel) Connects(a, b string) bool {
	return (c.Source == a && c.Target == b) || (c.Source == b && c.Target == a)
}

// ChannelSpec describes a channel to open.
type ChannelSpec struct {
	Source        string `json:"source" mapstructure:"source"`
	Target        string `json:"target" mapstructure:"target"`
	SourceBalance int    `json:"sourceBalance,omitempty" mapstructure:"sourceBalance"`
	TargetBalance int    `json:"targetBalance,omitempty" mapstructure:"targetBalance"`
}
