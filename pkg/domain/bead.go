package domain

import "fmt"

// BeadState tells which side of the channel a bead belongs to.
type BeadState int

const (
	BeadSource BeadState = 0
	BeadTarget BeadState = 1
)

func (s BeadState) String() string {
	if s == BeadTarget {
		return "target"
	}
	return "source"
}

// Bead is one unit of channel balance.
type Bead struct {
	ID    string    `json:"id"`
	State BeadState `json:"state"`
	Index int       `json:"index"`
}

// DeriveBeads computes the bead sequence of a channel.
// Source beads come first (indices 0..sourceBalance-1), followed by target beads.
// Bead ids embed the channel capacity, so every resize yields new ids.
func DeriveBeads(channelID string, sourceBalance, targetBalance int) []Bead {
	if sourceBalance < 0 {
		sourceBalance = 0
	}
	if targetBalance < 0 {
		targetBalance = 0
	}
	total := sourceBalance + targetBalance
	beads := make([]Bead, 0, total)
	for i := 0; i < total; i++ {
		state := BeadSource
		if i >= sourceBalance {
			state = BeadTarget
		}
		beads = append(beads, Bead{
			ID:    fmt.Sprintf("bead_%s_%s_%dx%d", channelID, state, i, total),
			State: state,
			Index: i,
		})
	}
	return beads
}
