package domain_test

import (
	"testing"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Nodes: []domain.Node{
			{ID: "alice", Balance: 5, OffchainBalance: 5},
			{ID: "bob", Balance: 7, OffchainBalance: 3},
		},
		Channels: []domain.Channel{
			{ID: "channelalice8bob", Source: "alice", Target: "bob", SourceBalance: 5, TargetBalance: 3},
		},
	}
}

func TestSnapshot_Validate(t *testing.T) {
	require.NoError(t, validSnapshot().Validate())

	t.Run("Offchain Mismatch", func(t *testing.T) {
		s := validSnapshot()
		s.Nodes[0].OffchainBalance = 4
		assert.ErrorIs(t, s.Validate(), domain.ErrInvalidArgument)
	})

	t.Run("Unknown Endpoint", func(t *testing.T) {
		s := validSnapshot()
		s.Channels[0].Target = "carol"
		assert.ErrorIs(t, s.Validate(), domain.ErrNotFound)
	})

	t.Run("Duplicate Node", func(t *testing.T) {
		s := validSnapshot()
		s.Nodes = append(s.Nodes, domain.Node{ID: "bob"})
		assert.ErrorIs(t, s.Validate(), domain.ErrDuplicateNode)
	})
}

func TestSnapshot_CloneIsDetached(t *testing.T) {
	s := validSnapshot()
	s.Channels[0].Beads = domain.DeriveBeads(s.Channels[0].ID, 5, 3)

	c := s.Clone()
	c.Nodes[0].Balance = 99
	c.Channels[0].Beads[0].State = domain.BeadTarget

	assert.Equal(t, 5, s.Nodes[0].Balance)
	assert.Equal(t, domain.BeadSource, s.Channels[0].Beads[0].State)
}

func TestSnapshot_Lookup(t *testing.T) {
	s := validSnapshot()

	ch, ok := s.Channel("bob", "alice")
	require.True(t, ok)
	assert.Equal(t, "alice", ch.Source)

	_, ok = s.Node("carol")
	assert.False(t, ok)
}
