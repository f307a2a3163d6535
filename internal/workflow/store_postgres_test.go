package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStoreWithDB(db), mock
}

func TestPostgresStore_PutUpserts(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	data, err := json.Marshal(status)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO workflow_status").
		WithArgs("wf-1", "pending", data, status.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(context.Background(), status))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	status.State = StateSucceeded
	data, err := json.Marshal(status)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT data FROM workflow_status WHERE id").
		WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

	got, ok, err := store.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateSucceeded, got.State)
	assert.Equal(t, "portfolio", got.Task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT data FROM workflow_status WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("DELETE FROM workflow_status").
		WithArgs("wf-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "wf-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	a, _ := json.Marshal(NewStatus("wf-1", "a", "a@example.com"))
	b, _ := json.Marshal(NewStatus("wf-2", "b", "b@example.com"))

	mock.ExpectQuery("SELECT data FROM workflow_status ORDER BY updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(a).AddRow(b))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
