package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func setupPingDB(t testing.TB) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() {
		mockDB.Close()
	})

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestPing(t *testing.T) {
	errUnknown := errors.New("unknown error")

	t.Run("succeeds after retry", func(t *testing.T) {
		db, mock := setupPingDB(t)

		mock.ExpectPing().WillReturnError(errUnknown)
		mock.ExpectPing()

		err := ping(context.Background(), db, 3, time.Millisecond)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		db, mock := setupPingDB(t)

		mock.ExpectPing().WillReturnError(errUnknown)
		mock.ExpectPing().WillReturnError(errUnknown)

		err := ping(context.Background(), db, 2, time.Millisecond)

		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		db, mock := setupPingDB(t)

		mock.ExpectPing().WillReturnError(errUnknown)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := ping(ctx, db, 5, time.Hour)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
