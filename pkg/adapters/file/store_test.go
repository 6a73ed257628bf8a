package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/beadnet/pkg/adapters/file"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	store := file.New(dir)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "missing directory lists nothing")

	snap := domain.Snapshot{Nodes: []domain.Node{{ID: "alice", Balance: 3}}}
	require.NoError(t, store.Save(ctx, "b", snap))
	require.NoError(t, store.Save(ctx, "a", snap))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err = os.Stat(filepath.Join(dir, "a.json"))
	assert.NoError(t, err)
}

func TestFileStore_RejectsPathNames(t *testing.T) {
	store := file.New(t.TempDir())
	for _, name := range []string{"", "..", "../escape", `dir\name`} {
		err := store.Save(context.Background(), name, domain.Snapshot{})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, name)
	}
}

func TestFileStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to unmarshal")
}
