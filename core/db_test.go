package core

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		assert.NoError(t, RunInTx(ctx, db, func(tx DBExecutor) error { return nil }))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := RunInTx(ctx, db, func(tx DBExecutor) error { return boom })
		assert.Equal(t, boom, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "boom", func() {
			_ = RunInTx(ctx, db, func(tx DBExecutor) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := RunInTx(ctx, db, func(tx DBExecutor) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.EqualError(t, err, "starting transaction: connection refused")
	})
}
