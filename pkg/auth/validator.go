package auth

import (
	"errors"
	"net/http"

	"eduplatform/pkg/claims"
	"eduplatform/pkg/session"
)

var ErrNoToken = errors.New("no token")

// Reasons reported in AuthResult.Reason. They are for logs only; clients
// always get the same generic message.
const (
	ReasonNoToken      = "no token"
	ReasonInvalidToken = "invalid or expired token"
)

// Verifier is satisfied by *token.Codec.
type Verifier interface {
	Verify(tokenString string) (*claims.SessionClaims, error)
}

// AuthResult is the per-request authentication decision.
type AuthResult struct {
	IsValid bool
	User    *claims.SessionClaims
	Reason  string
	// Err keeps the specific cause (ErrNoToken or a *token.VerificationError).
	Err error
}

type Validator struct {
	verifier Verifier
}

func NewValidator(v Verifier) *Validator {
	return &Validator{verifier: v}
}

// Validate reads the session cookie and verifies it. It has no side effects.
func (v *Validator) Validate(r *http.Request) AuthResult {
	raw, ok := session.FromRequest(r)
	if !ok {
		return AuthResult{Reason: ReasonNoToken, Err: ErrNoToken}
	}

	c, err := v.verifier.Verify(raw)
	if err != nil {
		return AuthResult{Reason: ReasonInvalidToken, Err: err}
	}

	return AuthResult{IsValid: true, User: c}
}
