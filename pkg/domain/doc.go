/*
Package domain contains the core domain models of the Beadnet network.

It defines the entities shared by the network model, the script player and the
render adapters. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A participant holding free (on-chain) funds and funds locked in channels.
  - Channel: A funded link between two nodes with separately attributed balances.
  - Bead: One unit of channel balance, the token animated during a transfer.
  - Snapshot: A read-only copy of every node and channel, handed to render adapters.
  - Event: A notification emitted after each mutation (see LifecycleHooks).
*/
package domain
