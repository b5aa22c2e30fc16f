package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"collablist/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "artifacts/default-app-id/public/data/movie_jukebox"

func TestInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO entries").
		WithArgs("entry-1", testPath, `{"movie":"Up","song":"Married Life"}`, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	repo := NewEntryRepository(db)
	got, err := repo.Insert(context.Background(), store.Entry{
		ID:         "entry-1",
		Collection: testPath,
		Fields:     store.Fields{"movie": "Up", "song": "Married Life"},
		AddedBy:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, createdAt, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO entries").WillReturnError(errors.New("connection reset"))

	repo := NewEntryRepository(db)
	_, err = repo.Insert(context.Background(), store.Entry{ID: "entry-1", Collection: testPath, Fields: store.Fields{}})
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCollection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t1 := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	mock.ExpectQuery("SELECT id, fields, added_by, created_at FROM entries WHERE collection_path = \\$1").
		WithArgs(testPath).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fields", "added_by", "created_at"}).
			AddRow("e1", []byte(`{"movie":"Inception","song":"Time"}`), "user-1", t1).
			AddRow("bad", []byte(`{not json`), "user-1", t1).
			AddRow("e2", []byte(`{"movie":"Up","song":"Married Life"}`), "user-2", t2))

	repo := NewEntryRepository(db)
	snap, err := repo.ListByCollection(context.Background(), testPath)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "e1", snap[0].ID)
	assert.Equal(t, "Inception", snap[0].String("movie"))
	assert.Equal(t, testPath, snap[0].Collection)
	assert.Equal(t, "user-2", snap[1].AddedBy)
	assert.Equal(t, t2, snap[1].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCollectionEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs(testPath).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fields", "added_by", "created_at"}))

	repo := NewEntryRepository(db)
	snap, err := repo.ListByCollection(context.Background(), testPath)
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}
