// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, token generation,
// session signing) from the domain logic. Services receive these primitives
// through small interfaces so tests can substitute cheaper implementations.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSession is returned for any credential that fails verification.
var ErrInvalidSession = errors.New("sec: invalid session credential")

// SessionClaims represents the payload embedded inside a session credential.
//
// Role and region are denormalized at issuance time so authorization checks can
// run before the account row is re-read.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the cookie small.
	Role   Role   `json:"rol"`
	Region string `json:"reg,omitempty"`
}

// SessionSigner signs and verifies session credentials using HS256.
type SessionSigner struct {
	secret []byte
	issuer string
}

// NewSessionSigner creates a new SessionSigner keyed by secret.
func NewSessionSigner(secret, issuer string) (*SessionSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: session secret must not be empty")
	}
	return &SessionSigner{secret: []byte(secret), issuer: issuer}, nil
}

// Sign mints a credential for the given subject that expires after timeToLive.
func (signer *SessionSigner) Sign(subject string, role Role, region string, timeToLive time.Duration) (string, *SessionClaims, error) {
	currentTime := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Role:   role,
		Region: region,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(signer.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sec: failed to sign session: %w", err)
	}

	return signedToken, claims, nil
}

// Verify checks the signature, issuer and expiry of a credential string.
// Every failure is reported as [ErrInvalidSession] wrapping the cause.
func (signer *SessionSigner) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return signer.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signer.issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
