package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token cannot be decoded.
	ErrMalformed = errors.New("malformed token")
	// ErrNoExpiry is returned when a token carries no exp claim.
	ErrNoExpiry = errors.New("token has no expiry")
)

// AccessClaims is the subset of access-token claims inspected by the client.
type AccessClaims struct {
	UID string `json:"uid,omitempty"`
	SID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Decoder extracts claims from tokens without signature verification.
// The zero value is ready to use.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

// Claims decodes the token payload.
func (d *Decoder) Claims(token string) (*AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformed
	}
	p := d.parser
	if p == nil {
		p = jwt.NewParser()
	}
	claims := &AccessClaims{}
	if _, _, err := p.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim.
func (d *Decoder) ExpiresAt(token string) (time.Time, error) {
	claims, err := d.Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
