package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers malformed, badly signed and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret is returned when the issuer has no signing key.
	ErrEmptySecret = errors.New("jwt secret is empty")
)

// Claims is the JWT payload issued at sign-in. The subject is the username.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 tokens with a process-wide key.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer. ttl must be positive.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token whose subject is the identity's username and
// whose roles claim carries its authorities.
func (ti *TokenIssuer) Issue(id Identity) (string, error) {
	if strings.TrimSpace(id.Username) == "" {
		return "", errors.New("identity has no username")
	}
	now := ti.now()
	roles := make([]string, len(id.Roles))
	copy(roles, id.Roles)
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			ID:        uuid.NewString(),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Parse validates the token and returns the identity it asserts. Only the
// username and roles are recoverable from a token.
func (ti *TokenIssuer) Parse(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("token not valid")
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, _ := tok.Claims.(*Claims)
	if c == nil || c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{Username: c.Subject, Roles: c.Roles}, nil
}
