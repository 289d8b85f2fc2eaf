// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/mail"
	"github.com/taibuivan/hafiz/internal/platform/sec"
)

// # Password Recovery

/*
RequestPasswordReset starts the forgot-password flow.

Description: Succeeds whether or not the email is registered. For a known
account a reset token is stored (as a digest, with its expiry) and mailed.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Storage failures only
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	identity, err := service.repository.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.logger.DebugContext(context, "password_reset_unknown_email")
			return nil
		}
		return fmt.Errorf("identity_service_reset_lookup_failed: %w", err)
	}

	token, digest, err := service.issueToken()
	if err != nil {
		return fmt.Errorf("identity_service_generate_reset_token_failed: %w", err)
	}

	expiresAt := service.options.Now().Add(service.options.ResetTokenTTL)
	err = service.repository.UpdateFields(context, identity.ID, Fields{
		ResetTokenHash: &digest,
		ResetExpiresAt: &expiresAt,
	})
	if err != nil {
		return fmt.Errorf("identity_service_save_reset_token_failed: %w", err)
	}

	service.send(context, mail.Message{
		To:      identity.Email,
		Subject: resetSubject,
		Body: fmt.Sprintf(resetBody,
			identity.DisplayName,
			expiresAt.UTC().Format(time.RFC1123),
			service.link("/reset-password", token),
		),
	})

	service.logger.InfoContext(context, "password_reset_requested", slog.String("identity_id", identity.ID))
	return nil
}

/*
ValidateResetToken reports whether token may still be used.

Used to decide whether to show the reset form before submission.

Returns:
  - error: nil when valid, InvalidOrExpiredToken otherwise
*/
func (service *Service) ValidateResetToken(context context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.InvalidOrExpiredToken()
	}

	_, err := service.repository.FindByToken(context, TokenReset, sec.HashToken(token), service.options.Now())
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return apperr.InvalidOrExpiredToken()
		}
		return fmt.Errorf("identity_service_validate_reset_token_failed: %w", err)
	}

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: The new password is validated first. The token is then matched,
checked against its expiry, and cleared together with the password change in
one conditional update, so it can be used at most once.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: Validation, InvalidOrExpiredToken, or storage failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	if err := validatePassword(FieldNewPassword, newPassword); err != nil {
		return err
	}

	if strings.TrimSpace(token) == "" {
		return apperr.InvalidOrExpiredToken()
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_reset_password_hash_failed: %w", err)
	}

	identity, err := service.repository.ConsumeResetToken(context, sec.HashToken(token), hashedPassword, service.options.Now())
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return apperr.InvalidOrExpiredToken()
		}
		return fmt.Errorf("identity_service_reset_password_failed: %w", err)
	}

	service.logger.InfoContext(context, "password_reset_completed", slog.String("identity_id", identity.ID))
	return nil
}
