// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"time"

	"github.com/taibuivan/hafiz/internal/access"
)

// TokenKind selects which single-use token column a lookup matches.
type TokenKind int

const (
	TokenVerification TokenKind = iota
	TokenReset
)

// Fields is a partial update of an [Identity]. Nil fields are left untouched.
type Fields struct {
	PasswordHash   *string
	IsActive       *bool
	IsVerified     *bool
	ResetTokenHash *string
	ResetExpiresAt *time.Time

	// ClearResetToken nulls both the reset token and its expiry.
	ClearResetToken bool
}

// Empty reports whether the update would change nothing.
func (fields Fields) Empty() bool {
	return fields.PasswordHash == nil && fields.IsActive == nil && fields.IsVerified == nil &&
		fields.ResetTokenHash == nil && fields.ResetExpiresAt == nil && !fields.ClearResetToken
}

// # Credential Store

// Repository defines the data access contract for identities.
//
// Tokens are never stored in clear text: every token argument is the
// [sec.HashToken] digest of the bearer value. Missing rows are reported as
// apperr NOT_FOUND.
type Repository interface {

	/*
		FindByEmail returns the account with the given normalized email.

		Parameters:
		  - context: context.Context
		  - email: string (output of NormalizeEmail)

		Returns:
		  - *Identity: Hydrated entity
		  - error: NotFound or database failures
	*/
	FindByEmail(context context.Context, email string) (*Identity, error)

	// FindByID returns the account with the given ID.
	FindByID(context context.Context, id string) (*Identity, error)

	/*
		FindByToken returns the account currently holding tokenHash.

		Reset tokens only match strictly before their expiry (compared against now).
		Verification tokens ignore now.

		Parameters:
		  - context: context.Context
		  - kind: TokenKind
		  - tokenHash: string
		  - now: time.Time

		Returns:
		  - *Identity: Hydrated entity
		  - error: NotFound or database failures
	*/
	FindByToken(context context.Context, kind TokenKind, tokenHash string, now time.Time) (*Identity, error)

	/*
		Insert persists a new account.

		Parameters:
		  - context: context.Context
		  - identity: *Identity
		  - verificationTokenHash: string (empty for none)

		Returns:
		  - error: Conflict on a duplicate email, or database failures
	*/
	Insert(context context.Context, identity *Identity, verificationTokenHash string) error

	// UpdateFields applies a partial update to the account with the given ID.
	UpdateFields(context context.Context, id string, fields Fields) error

	/*
		ConsumeVerificationToken atomically matches and clears a verification token,
		marking the account verified and active in the same statement.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *Identity: The account as it is after the update
		  - error: NotFound when no account holds the token (never issued or already consumed)
	*/
	ConsumeVerificationToken(context context.Context, tokenHash string) (*Identity, error)

	/*
		ConsumeResetToken atomically matches an unexpired reset token, replaces the
		password hash, and clears the token and its expiry.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - passwordHash: string
		  - now: time.Time

		Returns:
		  - *Identity: The account as it is after the update
		  - error: NotFound when the token is unknown, consumed, or expired
	*/
	ConsumeResetToken(context context.Context, tokenHash, passwordHash string, now time.Time) (*Identity, error)

	// Deactivate sets active=false and releases any hafiz record linked to the account.
	Deactivate(context context.Context, id string) error

	// List returns one page of accounts visible through filter and the total count.
	List(context context.Context, filter access.Filter, limit, offset int) ([]*Identity, int, error)
}
