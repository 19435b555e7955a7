package token

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("malformed token")
)

// VerificationError carries the reason a token was rejected. Kind is one of
// the sentinel errors above, so errors.Is works against it directly.
type VerificationError struct {
	Kind  error
	Inner error
}

func (e *VerificationError) Error() string {
	if e.Inner == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Inner.Error()
}

func (e *VerificationError) Is(target error) bool {
	return e.Kind == target
}

func (e *VerificationError) Unwrap() error {
	return e.Inner
}
