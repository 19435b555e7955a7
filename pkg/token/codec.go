package token

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"eduplatform/pkg/claims"
)

const (
	// SessionTTL is the fixed lifetime of every issued session token.
	SessionTTL = 7 * 24 * time.Hour

	minSecretLen = 32
)

var (
	ErrWeakSecret    = fmt.Errorf("signing secret must be at least %d bytes", minSecretLen)
	ErrEmptyIdentity = errors.New("user id and email are required")
)

// Identity is what a caller knows about the user at login time.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Extra  map[string]string
}

// Codec issues and verifies HS256 session tokens. It holds no mutable
// state and is safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

// WithClock replaces time.Now for both issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
		parser: &jwt.Parser{
			ValidMethods: []string{jwt.SigningMethodHS256.Alg()},
			// expiry is checked against the codec clock, not jwt.TimeFunc
			SkipClaimsValidation: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) Issue(id Identity) (string, error) {
	if id.UserID == "" || id.Email == "" {
		return "", ErrEmptyIdentity
	}

	now := c.now().UTC()
	sc := &claims.SessionClaims{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Extra:  copyExtra(id.Extra),
		StandardClaims: jwt.StandardClaims{
			Subject:   id.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(SessionTTL).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token signing: %w", err)
	}
	return signed, nil
}

// Verify never panics on hostile input; every rejection is a
// *VerificationError whose Kind is ErrMalformed, ErrInvalidSignature or
// ErrExpired.
func (c *Codec) Verify(tokenString string) (*claims.SessionClaims, error) {
	if tokenString == "" {
		return nil, &VerificationError{Kind: ErrMalformed}
	}

	sc := &claims.SessionClaims{}
	if _, err := c.parser.ParseWithClaims(tokenString, sc, c.key); err != nil {
		return nil, classify(err)
	}

	if sc.UserID == "" || sc.Email == "" || sc.ExpiresAt == 0 {
		return nil, &VerificationError{Kind: ErrMalformed, Inner: errors.New("missing required claims")}
	}
	if !sc.VerifyExpiresAt(c.now().Unix(), true) {
		return nil, &VerificationError{Kind: ErrExpired}
	}

	return sc, nil
}

func (c *Codec) key(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

func classify(err error) error {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorMalformed != 0 {
		return &VerificationError{Kind: ErrMalformed, Inner: err}
	}
	return &VerificationError{Kind: ErrInvalidSignature, Inner: err}
}

func copyExtra(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
