// Package auth resolves requests and websocket handshakes to the account
// behind their session.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
)

const TokenCookieKey = "token"

// SessionStore is the part of the repository the binder reads and writes.
type SessionStore interface {
	CreateSession(ctx context.Context, session database.Session) error
	GetSession(ctx context.Context, id string) (database.Session, error)
	DeleteSession(ctx context.Context, id string) error
	GetAccountById(ctx context.Context, accountId int) (database.User, error)
}

type Identity struct {
	User      types.User
	SessionId string
}

type Binder struct {
	log    *log.Logger
	store  SessionStore
	tokens *TokenIssuer
	ttl    time.Duration
	now    func() time.Time
}

func NewBinder(logger *log.Logger, store SessionStore, tokens *TokenIssuer, ttl time.Duration) *Binder {
	return &Binder{
		log:    logger,
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TokenFromRequest looks for a token in the cookie, then the Authorization
// header, then the query string. Browsers cannot set headers on a websocket
// upgrade, hence the query fallback.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieKey); err == nil && c.Value != "" {
		return c.Value
	}

	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return r.URL.Query().Get("token")
}

// Bind returns the identity of the session carried by r or an
// apperr.KindUnauthenticated error. It performs lookups only.
func (b *Binder) Bind(r *http.Request) (Identity, error) {
	tokenString := TokenFromRequest(r)
	if tokenString == "" {
		return Identity{}, apperr.ErrUnauthenticated
	}

	sid, err := b.tokens.Parse(tokenString)
	if err != nil {
		b.log.Printf("rejecting token: %v", err)
		return Identity{}, apperr.ErrUnauthenticated
	}

	return b.resolve(r.Context(), sid)
}

func (b *Binder) resolve(ctx context.Context, sid string) (Identity, error) {
	session, err := b.store.GetSession(ctx, sid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, apperr.ErrUnauthenticated
		}
		return Identity{}, apperr.Internal(fmt.Errorf("get session: %w", err))
	}

	if session.Expired(b.now()) {
		return Identity{}, apperr.ErrSessionExpired
	}

	user, err := b.store.GetAccountById(ctx, session.UserId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, apperr.ErrUnauthenticated
		}
		return Identity{}, apperr.Internal(fmt.Errorf("get account: %w", err))
	}

	return Identity{
		User: types.User{
			Id:           user.Id,
			Username:     user.Username,
			EmailAddress: user.EmailAddress,
			CreatedAt:    types.OptionalTime(user.CreatedAt),
			UpdatedAt:    types.OptionalTime(user.UpdatedAt),
		},
		SessionId: session.Id,
	}, nil
}

// StartSession stores a new session for userId and returns its signed token.
func (b *Binder) StartSession(ctx context.Context, userId int) (string, database.Session, error) {
	session := database.Session{
		Id:        uuid.NewString(),
		UserId:    userId,
		ExpiresAt: b.now().Add(b.ttl).UTC(),
	}

	if err := b.store.CreateSession(ctx, session); err != nil {
		return "", database.Session{}, fmt.Errorf("create session: %w", err)
	}

	token, err := b.tokens.Issue(session.Id, session.ExpiresAt)
	if err != nil {
		return "", database.Session{}, fmt.Errorf("issue token: %w", err)
	}

	return token, session, nil
}

func (b *Binder) EndSession(ctx context.Context, sessionId string) error {
	return b.store.DeleteSession(ctx, sessionId)
}
