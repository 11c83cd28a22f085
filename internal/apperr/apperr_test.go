package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tcases := []struct {
		name string
		err  error
		kind Kind
	}{
		{name: "nil", err: nil, kind: ""},
		{name: "typed", err: ErrAlreadyVoted, kind: KindConflict},
		{name: "wrapped typed", err: fmt.Errorf("vote: %w", ErrInsufficientFunds), kind: KindInsufficientFunds},
		{name: "untyped", err: errors.New("boom"), kind: KindInternal},
		{name: "transient", err: Transient(errors.New("deadlock")), kind: KindTransient},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, KindOf(tc.err))
		})
	}
}

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("tip post: %w", ErrSelfTipNotAllowed)
	assert.ErrorIs(t, wrapped, ErrSelfTipNotAllowed)
	assert.NotErrorIs(t, wrapped, ErrInsufficientFunds)

	// a freshly built error with the same kind and message matches the sentinel
	assert.ErrorIs(t, Conflict("already voted in this poll"), ErrAlreadyVoted)
}

func TestErrorUnwrap(t *testing.T) {
	err := Wrap(KindNotFound, "lookup", sql.ErrNoRows)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, "lookup: sql: no rows in result set", err.Error())
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
}
