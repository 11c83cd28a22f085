package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password")
	require.NoError(t, err)
	assert.NotEqual(t, "password", hash)
	assert.True(t, VerifyPassword(hash, "password"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestTokenIssuer(t *testing.T) {
	ti := NewTokenIssuer(testKey)

	t.Run("round trip", func(t *testing.T) {
		token, err := ti.Issue("session-1", time.Now().Add(time.Hour))
		require.NoError(t, err)

		sid, err := ti.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "session-1", sid)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := ti.Issue("session-1", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = ti.Parse(token)
		assert.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewTokenIssuer([]byte("other")).Issue("session-1", time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = ti.Parse(token)
		assert.Error(t, err)
	})

	t.Run("missing session claim", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user-id": 1,
			"exp":     time.Now().Add(time.Hour).Unix(),
		}).SignedString(testKey)
		require.NoError(t, err)

		_, err = ti.Parse(token)
		assert.ErrorIs(t, err, errInvalidToken)
	})
}

func TestTokenFromRequest(t *testing.T) {
	tcases := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{
			name:   "cookie",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookieKey, Value: "from-cookie"}) },
			expect: "from-cookie",
		},
		{
			name:   "bearer header",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer from-header") },
			expect: "from-header",
		},
		{
			name: "cookie wins over header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookieKey, Value: "from-cookie"})
				r.Header.Set("Authorization", "Bearer from-header")
			},
			expect: "from-cookie",
		},
		{
			name: "query string",
			setup: func(r *http.Request) {
				q := r.URL.Query()
				q.Set("token", "from-query")
				r.URL.RawQuery = q.Encode()
			},
			expect: "from-query",
		},
		{
			name:   "basic auth is ignored",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Basic Zm9vOmJhcg==") },
			expect: "",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			tc.setup(r)
			assert.Equal(t, tc.expect, TokenFromRequest(r))
		})
	}
}

func newTestBinder(t *testing.T) (*Binder, *database.MockRepository, time.Time) {
	repo := database.NewMockRepository()
	t.Cleanup(func() { repo.AssertExpectations(t) })

	now := time.Now().UTC().Truncate(time.Second)
	b := NewBinder(testutil.TestLogger(t), repo, NewTokenIssuer(testKey), time.Hour)
	b.now = func() time.Time { return now }
	return b, repo, now
}

func requestWithToken(t *testing.T, sid string) *http.Request {
	token, err := NewTokenIssuer(testKey).Issue(sid, time.Now().Add(time.Hour))
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestBinderBind(t *testing.T) {
	t.Run("live session", func(t *testing.T) {
		b, repo, now := newTestBinder(t)
		repo.On("GetSession", mock.Anything, "sid").
			Return(database.Session{Id: "sid", UserId: 7, ExpiresAt: now.Add(time.Minute)}, nil).Once()
		repo.On("GetAccountById", mock.Anything, 7).
			Return(database.User{Id: 7, Username: "alice"}, nil).Once()

		id, err := b.Bind(requestWithToken(t, "sid"))
		require.NoError(t, err)
		assert.Equal(t, 7, id.User.Id)
		assert.Equal(t, "alice", id.User.Username)
		assert.Equal(t, "sid", id.SessionId)
	})

	t.Run("no token", func(t *testing.T) {
		b, _, _ := newTestBinder(t)
		_, err := b.Bind(httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("forged token", func(t *testing.T) {
		b, _, _ := newTestBinder(t)
		r := httptest.NewRequest(http.MethodGet, "/ws?token=not-a-jwt", nil)
		_, err := b.Bind(r)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		b, repo, _ := newTestBinder(t)
		repo.On("GetSession", mock.Anything, "gone").Return(database.Session{}, sql.ErrNoRows).Once()

		_, err := b.Bind(requestWithToken(t, "gone"))
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("expired session", func(t *testing.T) {
		b, repo, now := newTestBinder(t)
		repo.On("GetSession", mock.Anything, "old").
			Return(database.Session{Id: "old", UserId: 7, ExpiresAt: now}, nil).Once()

		_, err := b.Bind(requestWithToken(t, "old"))
		assert.ErrorIs(t, err, apperr.ErrSessionExpired)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})

	t.Run("store failure", func(t *testing.T) {
		b, repo, _ := newTestBinder(t)
		repo.On("GetSession", mock.Anything, "sid").Return(database.Session{}, errors.New("conn reset")).Once()

		_, err := b.Bind(requestWithToken(t, "sid"))
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}

func TestBinderSessions(t *testing.T) {
	b, repo, now := newTestBinder(t)

	var stored database.Session
	repo.On("CreateSession", mock.Anything, mock.AnythingOfType("database.Session")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(database.Session) }).
		Return(nil).Once()
	repo.On("DeleteSession", mock.Anything, mock.Anything).Return(nil).Once()

	token, session, err := b.StartSession(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, stored, session)
	assert.Equal(t, 7, session.UserId)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)

	sid, err := b.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, session.Id, sid)

	assert.NoError(t, b.EndSession(context.Background(), session.Id))
}
