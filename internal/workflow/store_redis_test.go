package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T, retention time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, retention)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_PutGet(t *testing.T) {
	store, _ := newMiniredisStore(t, time.Hour)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	require.NoError(t, store.Put(ctx, status))

	got, ok, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, status.ID, got.ID)
	assert.Equal(t, StatePending, got.State)
}

func TestRedisStore_RetentionOnlyForTerminalStates(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Hour)
	ctx := context.Background()

	active := NewStatus("wf-active", "a", "a@example.com")
	require.NoError(t, store.Put(ctx, active))
	assert.Equal(t, time.Duration(0), mr.TTL("workflow:wf-active"))

	done := NewStatus("wf-done", "b", "b@example.com")
	done.State = StateSucceeded
	require.NoError(t, store.Put(ctx, done))
	assert.Equal(t, time.Hour, mr.TTL("workflow:wf-done"))
}

func TestRedisStore_TerminalRecordExpires(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Minute)
	ctx := context.Background()

	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	status.State = StateFailed
	require.NoError(t, store.Put(ctx, status))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newMiniredisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NewStatus("wf-1", "portfolio", "dev@example.com")))
	require.NoError(t, store.Delete(ctx, "wf-1"))

	_, ok, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_List(t *testing.T) {
	store, _ := newMiniredisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NewStatus("wf-1", "a", "a@example.com")))
	require.NoError(t, store.Put(ctx, NewStatus("wf-2", "b", "b@example.com")))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := newMiniredisStore(t, 0)
	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestRedisStore_PutPropagatesBackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(client, 0)

	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	data, err := json.Marshal(status)
	require.NoError(t, err)

	mock.ExpectSet("workflow:wf-1", data, 0).SetErr(errors.New("connection reset"))

	err = store.Put(context.Background(), status)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
	assert.NoError(t, mock.ExpectationsWereMet())
}
