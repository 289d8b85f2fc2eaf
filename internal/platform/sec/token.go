// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DefaultTokenLength is the number of random bytes behind every opaque token.
const DefaultTokenLength = 32

// TokenGenerator produces opaque bearer tokens for email verification and
// password reset.
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator reads tokens from crypto/rand.
type RandomTokenGenerator struct {
	length int
}

// NewRandomTokenGenerator returns a generator emitting length random bytes per token.
func NewRandomTokenGenerator(length int) *RandomTokenGenerator {
	if length < 16 {
		length = DefaultTokenLength
	}
	return &RandomTokenGenerator{length: length}
}

// Generate returns a URL-safe, unpadded base64 token.
func (generator *RandomTokenGenerator) Generate() (string, error) {
	return GenerateSecureToken(generator.length)
}

// GenerateSecureToken returns length random bytes encoded as URL-safe base64.
func GenerateSecureToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 digest of a bearer token.
//
// Only the digest is persisted, so a leaked database row cannot be replayed
// as a token.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
