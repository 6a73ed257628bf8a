package beadnet_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aretw0/beadnet"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/dsl"
)

// ExampleNew opens a channel between two nodes and moves beads across it.
func ExampleNew() {
	ctx := context.Background()

	// Zero timing delivers beads without animation delays.
	bn, err := beadnet.New(beadnet.WithTiming(beadnet.Timing{}))
	if err != nil {
		log.Fatal(err)
	}

	if _, err := bn.AddNodes(ctx, []domain.NodeSpec{
		{ID: "alice", Balance: domain.Int(10)},
		{ID: "bob", Balance: domain.Int(10)},
	}); err != nil {
		log.Fatal(err)
	}
	if _, err := bn.AddChannel(ctx, domain.ChannelSpec{Source: "alice", Target: "bob", SourceBalance: 6, TargetBalance: 2}); err != nil {
		log.Fatal(err)
	}

	done := make(chan error, 1)
	if _, err := bn.MoveBeads(ctx, "alice", "bob", 3, beadnet.OnComplete(func(err error) { done <- err })); err != nil {
		log.Fatal(err)
	}
	if err := <-done; err != nil {
		log.Fatal(err)
	}

	ch := bn.Channels("alice", "bob")[0]
	alice, _ := bn.Node("alice")
	fmt.Printf("channel %d:%d\n", ch.SourceBalance, ch.TargetBalance)
	fmt.Printf("alice free %d offchain %d\n", alice.Balance, alice.OffchainBalance)
	// Output:
	// channel 3:5
	// alice free 4 offchain 3
}

// ExampleBeadnet_NextStep plays a presentation built with the Go DSL.
func ExampleBeadnet_NextStep() {
	ctx := context.Background()

	b := dsl.New()
	b.Step("Two nodes").AddNode("alice", 5).AddNode("bob", 5)
	b.Step("A channel").OpenChannel("alice", "bob", 3, 0)

	bn, err := beadnet.New(beadnet.WithSteps(b.Build()), beadnet.WithTiming(beadnet.Timing{}))
	if err != nil {
		log.Fatal(err)
	}

	for {
		label, err := bn.NextStep(ctx)
		if errors.Is(err, domain.ErrPresentationEnded) {
			fmt.Println("the end")
			break
		}
		fmt.Println(label)
	}
	fmt.Println(bn.ChannelCount(), "channel")
	// Output:
	// Two nodes
	// A channel
	// the end
	// 1 channel
}
