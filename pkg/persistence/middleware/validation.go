package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/ports"
)

type validationMiddleware struct {
	ports.SnapshotStore
}

// NewValidationMiddleware refuses to save or hand out snapshots that break the
// network invariants, so a corrupted entry can never be restored.
func NewValidationMiddleware() Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &validationMiddleware{SnapshotStore: next}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, name string, snapshot domain.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("refusing to save snapshot %q: %w", name, err)
	}
	return m.SnapshotStore.Save(ctx, name, snapshot)
}

func (m *validationMiddleware) Load(ctx context.Context, name string) (domain.Snapshot, error) {
	snapshot, err := m.SnapshotStore.Load(ctx, name)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := snapshot.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("stored snapshot %q is corrupted: %w", name, err)
	}
	return snapshot, nil
}
