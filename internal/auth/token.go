package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	sessionIdClaim = "sid"
	expClaim       = "exp"
)

var errInvalidToken = errors.New("invalid token")

// TokenIssuer signs and verifies the HS256 tokens handed to clients. A
// token only names a session; whether the session is still alive is
// decided by the session store.
type TokenIssuer struct {
	key []byte
}

func NewTokenIssuer(key []byte) *TokenIssuer {
	return &TokenIssuer{key: key}
}

func (ti *TokenIssuer) Issue(sessionId string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		sessionIdClaim: sessionId,
		expClaim:       expiresAt.Unix(),
	})

	return token.SignedString(ti.key)
}

// Parse verifies the signature and expiry of tokenString and returns the
// session id it carries.
func (ti *TokenIssuer) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}

	sid, ok := claims[sessionIdClaim].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("missing session id claim: %w", errInvalidToken)
	}

	return sid, nil
}
