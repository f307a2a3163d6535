package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	require.NoError(t, store.Put(ctx, status))

	got, ok, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, status, got)

	// Put overwrites.
	status.State = StateSucceeded
	require.NoError(t, store.Put(ctx, status))
	got, _, _ = store.Get(ctx, "wf-1")
	assert.Equal(t, StateSucceeded, got.State)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NewStatus("wf-1", "portfolio", "dev@example.com")))
	require.NoError(t, store.Delete(ctx, "wf-1"))

	_, ok, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent id is a no-op.
	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NewStatus("wf-1", "a", "a@example.com")))
	require.NoError(t, store.Put(ctx, NewStatus("wf-2", "b", "b@example.com")))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore_PingClose(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}
