/*
Package ports defines the driven ports (interfaces) for Beadnet.

These interfaces decouple the network from external implementations, allowing
snapshots to be kept in memory or in Redis.

# Key Interfaces

  - SnapshotStore: Responsible for persisting and loading named network Snapshots.
  - DistributedLocker: Serializes snapshot writes across several server replicas.
*/
package ports
