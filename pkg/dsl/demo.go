package dsl

import "github.com/aretw0/beadnet/pkg/domain"

// Demo returns the walkthrough played when no script is given: three nodes,
// two channels and a payment routed from Alice to Carol through Bob.
func Demo() *Builder {
	b := New()

	b.Step("Alice, Bob and Carol join the network").
		AddNodes(
			domain.NodeSpec{ID: "alice", Balance: domain.Int(10)},
			domain.NodeSpec{ID: "bob", Balance: domain.Int(10)},
			domain.NodeSpec{ID: "carol", Balance: domain.Int(10)},
		)

	b.Step("Alice opens a channel to Bob").
		OpenChannel("alice", "bob", 5, 0)

	b.Step("Bob opens a channel to Carol").
		OpenChannel("bob", "carol", 4, 1)

	b.Step("Alice pays Carol **2** beads through Bob").
		Highlight("alice", "bob").
		Highlight("bob", "carol").
		MoveAndWait("alice", "bob", 2).
		MoveAndWait("bob", "carol", 2)

	b.Step("The route goes quiet").
		Unhighlight("alice", "bob").
		Unhighlight("bob", "carol")

	b.Step("Carol tops up her side and closes the channel").
		FundTarget("bob", "carol", 2).
		CloseChannel("bob", "carol")

	return b
}
