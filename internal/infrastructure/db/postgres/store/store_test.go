package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/quota"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestStore_WithinTx_Commit(t *testing.T) {
	mock := newMock(t)
	s := New(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
		WithArgs("fp").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO content_objects")).
		WithArgs("fp", int64(5)).
		WillReturnRows(mock.NewRows([]string{"fingerprint", "byte_size", "reference_count", "created_at"}).
			AddRow("fp", int64(5), int64(1), time.Now()))
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Contents().Lock(ctx, "fp"); err != nil {
			return err
		}
		_, created, err := repos.Contents().Acquire(ctx, "fp", 5)
		assert.True(t, created)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollbackOnError(t *testing.T) {
	mock := newMock(t)
	s := New(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quota_usage")).
		WillReturnRows(mock.NewRows([]string{"owner", "original_bytes", "actual_bytes", "updated_at"}))
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		_, err := repos.Quotas().Charge(ctx, "u1", 10, 10, 5)
		return err
	})
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_BeginAndCommitErrors(t *testing.T) {
	t.Run("begin", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

		err := New(mock).WithinTx(context.Background(), func(context.Context, ports.Repositories) error {
			t.Fatal("fn must not run")
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "begin tx")
	})

	t.Run("commit", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := New(mock).WithinTx(context.Background(), func(context.Context, ports.Repositories) error {
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit tx")
	})
}
