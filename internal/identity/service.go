// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/mail"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/internal/platform/validate"
	"github.com/taibuivan/hafiz/pkg/pointer"
)

// # Contracts & Types

// SessionRevoker invalidates a session credential before its expiry.
type SessionRevoker interface {
	Revoke(context context.Context, claims *sec.SessionClaims) error
}

// Options configures links and token windows.
type Options struct {
	// AppBaseURL prefixes the links sent by email.
	AppBaseURL string

	// ResetTokenTTL is how long a reset token stays consumable.
	ResetTokenTTL time.Duration

	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Service implements the identity use cases.
//
// # Review Process
//
// This service is critical for security. Changes to hashing, token handling,
// or the login error shape must keep account enumeration impossible.
type Service struct {
	repository Repository
	hasher     sec.PasswordHasher
	tokens     sec.TokenGenerator
	dispatcher mail.Dispatcher
	sessions   SessionRevoker
	options    Options
	logger     *slog.Logger

	// timingHash is verified against when an email is unknown so that a
	// missing account costs as much as a wrong password.
	timingHash string
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	repository Repository,
	hasher sec.PasswordHasher,
	tokens sec.TokenGenerator,
	dispatcher mail.Dispatcher,
	sessions SessionRevoker,
	options Options,
	logger *slog.Logger,
) *Service {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.ResetTokenTTL <= 0 {
		options.ResetTokenTTL = DefaultResetTokenTTL
	}
	options.AppBaseURL = strings.TrimRight(options.AppBaseURL, "/")

	timingHash, err := hasher.Hash("hafiz-timing-equalizer")
	if err != nil {
		logger.Warn("identity_timing_hash_failed", slog.Any("error", err))
	}

	return &Service{
		repository: repository,
		hasher:     hasher,
		tokens:     tokens,
		dispatcher: dispatcher,
		sessions:   sessions,
		options:    options,
		logger:     logger,
		timingHash: timingHash,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login verifies credentials and returns the authenticated account.

Description: An unknown email, an inactive account, and a wrong password all
fail with the same INVALID_CREDENTIALS error. Minting the session credential is
left to the caller, which owns the transport.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Identity: The authenticated account
  - error: InvalidCredentials or storage failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Identity, error) {
	identity, err := service.repository.FindByEmail(context, NormalizeEmail(input.Email))
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, fmt.Errorf("identity_service_login_lookup_failed: %w", err)
		}

		// Spend the same bcrypt work as a real account would.
		service.hasher.Verify(input.Password, service.timingHash)
		service.logger.InfoContext(context, "login_failed", slog.String("reason", "unknown_email"))
		return nil, apperr.InvalidCredentials()
	}

	// Verify before looking at the flags so inactive accounts cost the same.
	passwordMatches := service.hasher.Verify(input.Password, identity.PasswordHash)

	if !identity.IsActive {
		service.logger.InfoContext(context, "login_failed",
			slog.String("reason", "inactive"),
			slog.String("identity_id", identity.ID),
		)
		return nil, apperr.InvalidCredentials()
	}

	if !passwordMatches {
		service.logger.InfoContext(context, "login_failed",
			slog.String("reason", "wrong_password"),
			slog.String("identity_id", identity.ID),
		)
		return nil, apperr.InvalidCredentials()
	}

	service.logger.InfoContext(context, "login_succeeded",
		slog.String("identity_id", identity.ID),
		slog.String("role", identity.Role.String()),
	)
	return identity, nil
}

/*
CurrentIdentity re-reads the account behind a session subject.

Description: Role and region come from storage, not from the credential, so a
deactivation or role change takes effect on the next request.

Parameters:
  - context: context.Context
  - id: string (session subject)

Returns:
  - *Identity: The live account
  - error: Unauthorized if the account no longer exists or is inactive
*/
func (service *Service) CurrentIdentity(context context.Context, id string) (*Identity, error) {
	identity, err := service.repository.FindByID(context, id)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Session is no longer valid")
		}
		return nil, fmt.Errorf("identity_service_current_identity_failed: %w", err)
	}

	if !identity.IsActive {
		return nil, apperr.Unauthorized("Session is no longer valid")
	}

	return identity, nil
}

/*
ChangePassword rotates the password of an authenticated account.

Description: The new password is checked before anything else so a rejected
request leaves storage untouched. On success the account is also marked active
and verified; this finalizes onboarding for accounts created by an administrator.

Parameters:
  - context: context.Context
  - id: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Validation, Unauthorized, or storage failures
*/
func (service *Service) ChangePassword(context context.Context, id, currentPassword, newPassword string) error {
	if err := validatePassword(FieldNewPassword, newPassword); err != nil {
		return err
	}

	identity, err := service.CurrentIdentity(context, id)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(currentPassword, identity.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_change_password_hash_failed: %w", err)
	}

	err = service.repository.UpdateFields(context, id, Fields{
		PasswordHash:    &hashedPassword,
		IsActive:        pointer.To(true),
		IsVerified:      pointer.To(true),
		ClearResetToken: true,
	})
	if err != nil {
		return fmt.Errorf("identity_service_change_password_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "password_changed", slog.String("identity_id", id))
	return nil
}

/*
Logout revokes the presented credential where revocation is available.

It never fails: a revocation error is logged and the caller still clears the
cookie.
*/
func (service *Service) Logout(context context.Context, claims *sec.SessionClaims) {
	if claims == nil || service.sessions == nil {
		return
	}

	if err := service.sessions.Revoke(context, claims); err != nil {
		service.logger.WarnContext(context, "session_revoke_failed",
			slog.String("identity_id", claims.Subject),
			slog.Any("error", err),
		)
		return
	}

	service.logger.InfoContext(context, "logout", slog.String("identity_id", claims.Subject))
}

// # Helpers

// link builds an absolute front-end URL carrying a bearer token.
func (service *Service) link(path, token string) string {
	return service.options.AppBaseURL + path + "?" + url.Values{FieldToken: {token}}.Encode()
}

// issueToken returns a fresh bearer token and the digest to persist.
func (service *Service) issueToken() (token, digest string, err error) {
	token, err = service.tokens.Generate()
	if err != nil {
		return "", "", err
	}
	return token, sec.HashToken(token), nil
}

// send hands a message to the dispatcher. Delivery failures are logged and
// never undo the state change that produced the message.
func (service *Service) send(context context.Context, message mail.Message) {
	if err := service.dispatcher.Send(context, message); err != nil {
		service.logger.ErrorContext(context, "mail_dispatch_failed",
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
	}
}

// validatePassword enforces the password length rules on a single field.
func validatePassword(field, password string) error {
	return (&validate.Validator{}).
		MinLen(field, password, MinPasswordLength).
		Custom(field, len(password) > MaxPasswordLength, fmt.Sprintf("Maximum %d bytes", MaxPasswordLength)).
		Err()
}
