// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity implements accounts, credentials, and the flows that change them.

It covers login, current-identity resolution, password change, registration with
email verification, password reset, and administrative account management.

# Architecture

  - Service: Orchestrates every flow. Split by concern across service.go,
    registration.go, reset.go and admin.go.
  - Repository: The Credential Store contract. Token consumption is a single
    conditional update so two racing consumers cannot both succeed.
  - Handler: HTTP delivery. It owns the session cookie through [session.Issuer].
  - Resolver: Bridges the session cookie to an [access.Principal] for the
    authentication middleware, re-reading the account on every request.
*/
package identity

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/pkg/pointer"
)

// # Domain Entities

// Identity represents one account.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         sec.Role  `json:"role"`
	Region       *string   `json:"region,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// View is the projection of an [Identity] that is safe to return to clients.
type View struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        sec.Role  `json:"role"`
	Region      string    `json:"region,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// View returns the client-safe projection.
func (identity *Identity) View() View {
	return View{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		Region:      pointer.Val(identity.Region),
		IsActive:    identity.IsActive,
		IsVerified:  identity.IsVerified,
		CreatedAt:   identity.CreatedAt,
	}
}

// Principal returns the caller this account acts as.
func (identity *Identity) Principal() access.Principal {
	return access.Principal{
		ID:     identity.ID,
		Role:   identity.Role,
		Region: pointer.Val(identity.Region),
	}
}

// Views projects a slice of identities.
func Views(identities []*Identity) []View {
	views := make([]View, 0, len(identities))
	for _, identity := range identities {
		views = append(views, identity.View())
	}
	return views
}

// NormalizeEmail returns the canonical, case-folded form of an address.
//
// Every lookup and every insert goes through it, so uniqueness holds across
// case variants ("Ahmad@Example.com" and "ahmad@example.com" collide).
func NormalizeEmail(email string) string {
	// A Caser keeps internal state and must not be shared across goroutines.
	return cases.Fold().String(strings.TrimSpace(email))
}

// # Field Identifiers

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldRegion          = "region"
	FieldRole            = "role"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldMessage         = "message"
	FieldValid           = "valid"
)
