/*
Package beadnet models a network of payment channels and animates fund
movements as beads travelling along the channels.

Nodes hold a free (on-chain) balance. Opening a channel locks part of the
balance of both endpoints; every locked unit is a bead sitting on its owner's
side of the channel. Moving beads shifts funds from one side to the other,
one bead at a time, on a schedule render adapters can animate.

# Key Features

  - Consistent Bookkeeping: a node's offchain balance always equals the sum of its channel sides.
  - Cancellable Transfers: beads arrive one by one as ordered events; a transfer can be cancelled midway.
  - Presentation Scripts: step-by-step walkthroughs written in YAML or with the pkg/dsl builder.
  - Pluggable Rendering: snapshots and events feed the terminal view, the Mermaid exporter and the HTTP/SSE API.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/beadnet"
		"github.com/aretw0/beadnet/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		bn, err := beadnet.New()
		if err != nil {
			log.Fatal(err)
		}

		bn.AddNode(ctx, domain.NodeSpec{ID: "alice", Balance: domain.Int(10)})
		bn.AddNode(ctx, domain.NodeSpec{ID: "bob", Balance: domain.Int(10)})
		bn.AddChannel(ctx, domain.ChannelSpec{Source: "alice", Target: "bob", SourceBalance: 5})

		transfer, err := bn.MoveBeads(ctx, "alice", "bob", 3)
		if err != nil {
			log.Fatal(err)
		}
		if err := transfer.Wait(ctx); err != nil {
			log.Fatal(err)
		}
		fmt.Println(bn.Channels("alice", "bob")[0].TargetBalance) // 3
	}

# Presentation Mode

Pass steps with WithPresentation (or a config file with WithOptions) and call
NextStep to play them one at a time.
*/
package beadnet
