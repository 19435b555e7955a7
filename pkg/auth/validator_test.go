package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform/pkg/auth"
	"eduplatform/pkg/token"
)

const secret = "0123456789abcdef0123456789abcdef"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func codecAt(t *testing.T, now time.Time) *token.Codec {
	c, err := token.NewCodec([]byte(secret), token.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return c
}

func requestWithCookie(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if header != "" {
		req.Header.Set("Cookie", header)
	}
	return req
}

func TestValidate(t *testing.T) {
	codec := codecAt(t, t0)
	validator := auth.NewValidator(codec)

	signed, err := codec.Issue(token.Identity{UserID: "u1", Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	t.Run("valid cookie", func(t *testing.T) {
		res := validator.Validate(requestWithCookie("theme=dark; token=" + signed))

		assert.True(t, res.IsValid)
		require.NotNil(t, res.User)
		assert.Equal(t, "u1", res.User.UserID)
		assert.Equal(t, "ada@example.com", res.User.Email)
		assert.Empty(t, res.Reason)
		assert.NoError(t, res.Err)
	})

	t.Run("no cookie", func(t *testing.T) {
		res := validator.Validate(requestWithCookie(""))

		assert.False(t, res.IsValid)
		assert.Nil(t, res.User)
		assert.Equal(t, auth.ReasonNoToken, res.Reason)
		assert.ErrorIs(t, res.Err, auth.ErrNoToken)
	})

	t.Run("bearer header is not a session", func(t *testing.T) {
		req := requestWithCookie("")
		req.Header.Set("Authorization", "Bearer "+signed)

		res := validator.Validate(req)
		assert.False(t, res.IsValid)
		assert.ErrorIs(t, res.Err, auth.ErrNoToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		res := validator.Validate(requestWithCookie("token=not-a-jwt"))

		assert.False(t, res.IsValid)
		assert.Equal(t, auth.ReasonInvalidToken, res.Reason)
		assert.ErrorIs(t, res.Err, token.ErrMalformed)
	})

	t.Run("expired token", func(t *testing.T) {
		late := auth.NewValidator(codecAt(t, t0.Add(token.SessionTTL+time.Minute)))
		res := late.Validate(requestWithCookie("token=" + signed))

		assert.False(t, res.IsValid)
		assert.Equal(t, auth.ReasonInvalidToken, res.Reason)
		assert.ErrorIs(t, res.Err, token.ErrExpired)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other, err := token.NewCodec([]byte("fedcba9876543210fedcba9876543210"))
		require.NoError(t, err)
		res := auth.NewValidator(other).Validate(requestWithCookie("token=" + signed))

		assert.False(t, res.IsValid)
		assert.ErrorIs(t, res.Err, token.ErrInvalidSignature)
	})
}
