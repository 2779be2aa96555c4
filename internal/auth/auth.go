// Package auth checks administrative credentials: the static admin key, or a
// short-lived HS256 token signed with the admin token secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminSubject = "admin"
	issuer       = "customcraft"
)

var ErrUnauthorized = errors.New("unauthorized")

type Authorizer struct {
	adminKey    []byte
	tokenSecret []byte
	now         func() time.Time
}

// New builds an Authorizer. An empty tokenSecret disables token credentials.
func New(adminKey, tokenSecret string) *Authorizer {
	return &Authorizer{
		adminKey:    []byte(adminKey),
		tokenSecret: []byte(tokenSecret),
		now:         time.Now,
	}
}

// Authorize accepts either the admin key or a valid admin token, with or
// without a "Bearer " prefix.
func (a *Authorizer) Authorize(credential string) error {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return ErrUnauthorized
	}

	if len(a.adminKey) > 0 && subtle.ConstantTimeCompare([]byte(credential), a.adminKey) == 1 {
		return nil
	}

	if len(a.tokenSecret) == 0 {
		return ErrUnauthorized
	}

	_, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return a.tokenSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(adminSubject),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return nil
}

// IssueToken signs an admin token valid for ttl.
func IssueToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("token secret is required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}
