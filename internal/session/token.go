// ABOUTME: Local decoding of the access token expiry claim
// ABOUTME: Used only to skip a doomed profile fetch; the backend remains the authority

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned for tokens without an exp claim
var ErrNoExpiry = errors.New("access token has no exp claim")

// ExpiresAt reads the exp claim of a bearer token without verifying its signature.
//
// This is a local optimization and must never be treated as a security boundary:
// the signature is not checked, so the result only says whether the token is worth
// sending. Authorization is always re-validated by the backend.
func ExpiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode access token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("decode access token: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
