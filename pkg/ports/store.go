package ports

import (
	"context"

	"github.com/aretw0/beadnet/pkg/domain"
)

// SnapshotStore defines the interface for persisting network snapshots.
type SnapshotStore interface {
	// Save persists the snapshot under the given name, replacing any previous one.
	Save(ctx context.Context, name string, snapshot domain.Snapshot) error

	// Load retrieves the snapshot saved under name.
	// Returns domain.ErrSnapshotNotFound if there is none.
	Load(ctx context.Context, name string) (domain.Snapshot, error)

	// Delete removes the snapshot. Deleting an unknown name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of the stored snapshots.
	List(ctx context.Context) ([]string, error)
}
