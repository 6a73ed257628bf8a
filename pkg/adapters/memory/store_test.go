package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/beadnet/pkg/adapters/memory"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	snapshot := domain.Snapshot{Nodes: []domain.Node{{ID: "alice", Balance: 3}}}

	require.NoError(t, store.Save(ctx, "s", snapshot))
	snapshot.Nodes[0].Balance = 99

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Nodes[0].Balance)

	loaded.Nodes[0].Balance = 42
	again, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Nodes[0].Balance)
}

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestMemoryLocker_TTL(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "k", 50*time.Millisecond)
	require.NoError(t, err)

	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	unlock, err := locker.Lock(cctx, "k", 0)
	require.NoError(t, err, "expired lock is released")
	assert.NoError(t, unlock(ctx))
}
