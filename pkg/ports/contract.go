package ports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	name := "contract-test-" + time.Now().Format("20060102150405")

	snapshot := domain.Snapshot{
		Nodes: []domain.Node{
			{ID: "alice", Balance: 5, OffchainBalance: 5, Color: "#1f77b4"},
			{ID: "bob", Balance: 8, OffchainBalance: 2, Color: "#aec7e8"},
		},
		Channels: []domain.Channel{{
			ID:            "channelalice7bob",
			Source:        "alice",
			Target:        "bob",
			SourceBalance: 5,
			TargetBalance: 2,
			Highlighted:   true,
			Beads:         domain.DeriveBeads("channelalice7bob", 5, 2),
		}},
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, name, snapshot)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snapshot.Nodes, loaded.Nodes)
		require.Len(t, loaded.Channels, 1)
		assert.Equal(t, snapshot.Channels[0].ID, loaded.Channels[0].ID)
		assert.Equal(t, 5, loaded.Channels[0].SourceBalance)
		assert.Equal(t, 2, loaded.Channels[0].TargetBalance)
		assert.True(t, loaded.Channels[0].Highlighted)
		assert.NoError(t, loaded.Validate())
	})

	t.Run("Save Replaces", func(t *testing.T) {
		smaller := domain.Snapshot{Nodes: []domain.Node{{ID: "carol", Balance: 1}}}
		require.NoError(t, store.Save(ctx, name, smaller))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, smaller.Nodes, loaded.Nodes)
		assert.Empty(t, loaded.Channels)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, name, snapshot)
		require.NoError(t, err)

		err = store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, name), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		require.NoError(t, store.Save(ctx, id1, snapshot))
		require.NoError(t, store.Save(ctx, id2, snapshot))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})
}

// RunLockerContract verifies that a DistributedLocker grants a key to one holder at a time.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Exclusive", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Minute)
		require.NoError(t, err)

		var acquired atomic.Bool
		done := make(chan struct{})
		go func() {
			defer close(done)
			unlock2, err := locker.Lock(ctx, key, time.Minute)
			if err == nil {
				acquired.Store(true)
				_ = unlock2(ctx)
			}
		}()

		time.Sleep(150 * time.Millisecond)
		assert.False(t, acquired.Load(), "second holder must wait")

		require.NoError(t, unlock(ctx))
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("second holder never acquired the lock")
		}
		assert.True(t, acquired.Load())
	})

	t.Run("Context Cancel", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Minute)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(cctx, key, time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
