/*
Package dsl provides a Go DSL for writing Beadnet presentation scripts in code.

It is the type-safe counterpart of the YAML step lists read by pkg/config:
steps are declared in order with a fluent builder and compiled into
script.Step values, ready for a script.Player.

Example usage:

	b := dsl.New()

	b.Step("Alice and Bob join").
		AddNode("alice", 10).
		AddNode("bob", 10)

	b.Step("They open a channel").
		OpenChannel("alice", "bob", 5, 2).
		Highlight("alice", "bob")

	b.Step("Alice pays Bob").
		MoveAndWait("alice", "bob", 3).
		Unhighlight("alice", "bob")

	player := b.Player(script.WithTarget(net))
*/
package dsl
