// Package auth carries caller identity through the request path and issues
// the signed session tokens operators receive on login.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

// Actor identifies the caller of an operation.
type Actor struct {
	Username string
	Role     user.Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == user.RoleAdmin }

// Anonymous is the actor attached to requests that carry no identity.
var Anonymous = Actor{Username: "anonymous", Role: user.RoleStaff}

type contextKey struct{}

// WithActor attaches the actor to the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// ActorFrom extracts the actor from the context, defaulting to Anonymous.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(contextKey{}).(Actor); ok {
		return a
	}
	return Anonymous
}

// Claims is the JWT payload of a session token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a manager signing with the given secret. ttl is the
// session lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token for the user.
func (m *TokenManager) Issue(u user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses a session token and returns the actor it identifies.
func (m *TokenManager) Verify(token string) (Actor, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Actor{}, apperr.Unauthorized("invalid session token")
	}

	role := user.Role(claims.Role)
	if !role.Valid() {
		role = user.RoleStaff
	}
	return Actor{Username: claims.Username, Role: role}, nil
}
