package claims

import (
	"context"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

type contextKey string

const (
	TokenContextKey contextKey = "token"
)

// SessionClaims is the identity embedded in a session token. The known
// fields are closed; anything else a caller wants to carry goes into Extra.
type SessionClaims struct {
	UserID string            `json:"uid"`
	Email  string            `json:"email"`
	Name   string            `json:"name,omitempty"`
	Extra  map[string]string `json:"ext,omitempty"`
	jwt.StandardClaims
}

func (c *SessionClaims) IssuedAtTime() time.Time {
	return time.Unix(c.IssuedAt, 0).UTC()
}

func (c *SessionClaims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}

func NewContext(ctx context.Context, c *SessionClaims) context.Context {
	return context.WithValue(ctx, TokenContextKey, c)
}

func FromContext(ctx context.Context) (*SessionClaims, bool) {
	c, ok := ctx.Value(TokenContextKey).(*SessionClaims)
	if !ok || c == nil || c.UserID == "" {
		return nil, false
	}
	return c, true
}
