package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenStore issues and resolves opaque bearer tokens. A user holds at most
// one token; Issue returns the existing one when present.
type TokenStore interface {
	Issue(ctx context.Context, userID uint) (string, error)
	// Lookup returns ErrInvalidToken for an unknown key.
	Lookup(ctx context.Context, key string) (uint, error)
	Revoke(ctx context.Context, userID uint) error
}

// KeyLength is the length of a token key in hex characters.
const KeyLength = 40

// NewKey returns a random 40 character hex key.
func NewKey() (string, error) {
	b := make([]byte, KeyLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
