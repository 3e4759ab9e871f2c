package sqlx_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	storage "lingokit/adapters/sqlx"
	"lingokit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func recordJSON(t *testing.T, rec core.PointRecord) []byte {
	t.Helper()
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	return b
}

func TestSQLMock_Get(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	rec := core.NewPointRecord("u1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	rec.TotalPoints = 120
	rec.Level = 2

	mock.ExpectQuery(`SELECT record, version FROM user_points`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"record", "version"}).
			AddRow(recordJSON(t, rec), int64(4)))

	got, version, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, uint64(4), version)
	require.Equal(t, int64(120), got.TotalPoints)
	require.Equal(t, 2, got.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Get_Missing(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT record, version FROM user_points`).
		WithArgs(core.UserID("ghost")).
		WillReturnError(sql.ErrNoRows)

	_, version, err := store.Get(context.Background(), "ghost")
	require.NoError(t, err)
	require.Equal(t, uint64(0), version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put_Insert(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	rec := core.NewPointRecord("u1", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO user_points`).
		WithArgs(core.UserID("u1"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	version, err := store.Put(context.Background(), "u1", rec, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put_Insert_DuplicateKeyIsConflict(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	rec := core.NewPointRecord("u1", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO user_points`).
		WithArgs(core.UserID("u1"), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.Put(context.Background(), "u1", rec, 0)
	require.ErrorIs(t, err, core.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put_Insert_MySQLDuplicateKeyIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	store := storage.NewWithDB(libsqlx.NewDb(db, "mysql"), storage.DriverMySQL)

	rec := core.NewPointRecord("u1", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO user_points`).
		WithArgs(core.UserID("u1"), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err = store.Put(context.Background(), "u1", rec, 0)
	require.ErrorIs(t, err, core.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put_Insert_TransportErrorIsNotConflict(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	rec := core.NewPointRecord("u1", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO user_points`).
		WithArgs(core.UserID("u1"), sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)

	_, err := store.Put(context.Background(), "u1", rec, 0)
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrConflict)
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put_Update(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	rec := core.NewPointRecord("u1", time.Now().UTC())
	rec.TotalPoints = 30

	mock.ExpectExec(`UPDATE user_points SET record`).
		WithArgs(sqlmock.AnyArg(), core.UserID("u1"), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	version, err := store.Put(context.Background(), "u1", rec, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(4), version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put_StaleVersion(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	rec := core.NewPointRecord("u1", time.Now().UTC())

	mock.ExpectExec(`UPDATE user_points SET record`).
		WithArgs(sqlmock.AnyArg(), core.UserID("u1"), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Put(context.Background(), "u1", rec, 2)
	require.ErrorIs(t, err, core.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_List(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	a := core.NewPointRecord("a", time.Now().UTC())
	a.TotalPoints = 10
	b := core.NewPointRecord("b", time.Now().UTC())
	b.TotalPoints = 20

	mock.ExpectQuery(`SELECT record FROM user_points`).
		WillReturnRows(sqlmock.NewRows([]string{"record"}).
			AddRow(recordJSON(t, a)).
			AddRow(recordJSON(t, b)))

	recs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
