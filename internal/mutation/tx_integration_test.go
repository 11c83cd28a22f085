//go:build integration

package mutation

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTxRepository(t *testing.T, opts ...database.Option) *database.PgRepository {
	t.Cleanup(func() {
		_, err := testConn.Exec("TRUNCATE TABLE accounts RESTART IDENTITY CASCADE")
		require.NoError(t, err)
	})

	repo, err := database.NewPgRepository(testDSN, testutil.TestLogger(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestWithTxRetries(t *testing.T) {
	typed := apperr.Invalid("bad input")

	tcases := []struct {
		name     string
		retries  int
		failures []error
		attempts int
		kind     apperr.Kind
	}{
		{
			name:     "serialization failure is retried",
			retries:  3,
			failures: []error{&pq.Error{Code: "40001"}},
			attempts: 2,
		},
		{
			name:     "deadlock is retried",
			retries:  3,
			failures: []error{&pq.Error{Code: "40P01"}, &pq.Error{Code: "40P01"}},
			attempts: 3,
		},
		{
			name:     "unique violation is not retried",
			retries:  3,
			failures: []error{&pq.Error{Code: "23505"}},
			attempts: 1,
			kind:     apperr.KindConflict,
		},
		{
			name:     "typed error is not retried",
			retries:  3,
			failures: []error{typed},
			attempts: 1,
			kind:     apperr.KindInvalid,
		},
		{
			name:     "gives up after the configured retries",
			retries:  2,
			failures: []error{&pq.Error{Code: "55P03"}, &pq.Error{Code: "55P03"}, &pq.Error{Code: "55P03"}, &pq.Error{Code: "55P03"}},
			attempts: 3,
			kind:     apperr.KindTransient,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newTxRepository(t, database.WithTxRetries(tc.retries))

			attempts := 0
			err := repo.WithTx(context.Background(), func(q database.Queries) error {
				attempts++
				if attempts <= len(tc.failures) {
					return tc.failures[attempts-1]
				}
				return nil
			})

			assert.Equal(t, tc.attempts, attempts, "expected fn to run %d times", tc.attempts)
			if tc.kind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			if tc.kind == apperr.KindInvalid {
				assert.Equal(t, typed, err, "expected typed error to pass through unchanged")
			}
		})
	}
}

func TestWithTxLockTimeout(t *testing.T) {
	repo := newTxRepository(t, database.WithTxRetries(0), database.WithLockTimeout(100*time.Millisecond))
	id := seedAccount(t, "alice", 10)

	holder, err := testConn.Begin()
	require.NoError(t, err)
	defer holder.Rollback()
	_, err = holder.Exec("SELECT balance FROM wallets WHERE account_id = $1 FOR UPDATE", id)
	require.NoError(t, err)

	start := time.Now()
	err = repo.WithTx(context.Background(), func(q database.Queries) error {
		_, err := q.LockWallet(context.Background(), id)
		return err
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindTransient, apperr.KindOf(err), "expected a lock timeout to be transient")
	assert.Less(t, time.Since(start), 5*time.Second, "expected the lock wait to be bounded")
}
