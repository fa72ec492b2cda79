package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens inside the signed
// claim set. Verification callers must check it; the codec does not.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on each request.
	KindAccess Kind = "access"
	// KindRefresh marks longer-lived tokens exchanged for new pairs.
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken is returned when a token is malformed, carries a bad
// signature, or decodes into structurally unusable claims.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when a structurally valid token is past its
// expiry. Expiry is enforced here and nowhere else.
var ErrExpiredToken = errors.New("token expired")

// Payload is the decoded claim set of a token. It is immutable after
// issuance; revocation state lives out-of-band in the revocation store.
type Payload struct {
	Subject      uuid.UUID
	Email        string
	IsStaff      bool
	Kind         Kind
	IssuedAt     time.Time
	ExpiresAt    time.Time
	TokenVersion int64
	JTI          string
}

// claims is the wire representation. Field names are part of the token
// format and must stay stable: sub, email, is_staff, type, iat, exp,
// token_version, jti.
type claims struct {
	Email        string `json:"email"`
	IsStaff      bool   `json:"is_staff"`
	Kind         Kind   `json:"type"`
	TokenVersion int64  `json:"token_version"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes signed, time-bound claim sets using a single
// shared HMAC secret. It performs no I/O and is safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec validates the signing secret and returns a codec.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret must not be empty")
	}
	return &Codec{secret: secret}, nil
}

// Encode serializes the payload into a compact signed string. Timestamps
// are embedded at second resolution.
func (c *Codec) Encode(p Payload) (string, error) {
	if p.ExpiresAt.Unix() <= p.IssuedAt.Unix() {
		return "", fmt.Errorf("token: expiry %v not after issuance %v", p.ExpiresAt, p.IssuedAt)
	}

	wire := claims{
		Email:        p.Email,
		IsStaff:      p.IsStaff,
		Kind:         p.Kind,
		TokenVersion: p.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject.String(),
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
			ID:        p.JTI,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(c.secret)
}

// Decode verifies the signature and expiry and returns the claim set.
// A wrong Kind for the caller's operation is not a decode failure; the
// caller owns that check.
func (c *Codec) Decode(tokenStr string) (Payload, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{},
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrExpiredToken
		}
		return Payload{}, ErrInvalidToken
	}

	wire, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Payload{}, ErrInvalidToken
	}
	if wire.Kind != KindAccess && wire.Kind != KindRefresh {
		return Payload{}, ErrInvalidToken
	}
	if wire.IssuedAt == nil || wire.ExpiresAt == nil {
		return Payload{}, ErrInvalidToken
	}

	sub, err := uuid.Parse(wire.Subject)
	if err != nil {
		return Payload{}, ErrInvalidToken
	}

	return Payload{
		Subject:      sub,
		Email:        wire.Email,
		IsStaff:      wire.IsStaff,
		Kind:         wire.Kind,
		IssuedAt:     wire.IssuedAt.Time,
		ExpiresAt:    wire.ExpiresAt.Time,
		TokenVersion: wire.TokenVersion,
		JTI:          wire.ID,
	}, nil
}
