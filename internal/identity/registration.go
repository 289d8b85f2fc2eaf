// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/mail"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/internal/platform/validate"
	"github.com/taibuivan/hafiz/pkg/pointer"
	"github.com/taibuivan/hafiz/pkg/uuid"
)

// # Registration Flow

// RegisterInput holds the data required to enroll a new hafiz account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Region      string
}

func (input RegisterInput) validate() error {
	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, MaxDisplayNameLength).
		Required(FieldRegion, input.Region).
		MaxLen(FieldRegion, input.Region, MaxRegionLength).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Custom(FieldPassword, len(input.Password) > MaxPasswordLength, fmt.Sprintf("Maximum %d bytes", MaxPasswordLength))
	return validator.Err()
}

/*
Register creates a pending hafiz account and mails its verification link.

Description: The account starts inactive and unverified. Only the digest of the
verification token is stored; the token itself goes to the dispatcher and is
never returned to the caller. A dispatch failure is logged and does not undo
the registration.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Identity: Created entity
  - error: Validation, Conflict (email taken in any case variant), or storage failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Identity, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	identity, err := service.createIdentity(context, newAccount{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Role:        sec.RoleHafiz,
		Region:      input.Region,
		IsActive:    false,
	})
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "identity_registered", slog.String("identity_id", identity.ID))
	return identity, nil
}

// newAccount is the validated input shared by self-registration and
// administrative creation.
type newAccount struct {
	Email       string
	Password    string
	DisplayName string
	Role        sec.Role
	Region      string
	IsActive    bool
}

// createIdentity persists a new unverified account and sends its verification link.
func (service *Service) createIdentity(context context.Context, account newAccount) (*Identity, error) {
	email := NormalizeEmail(account.Email)

	// Early, friendly conflict. The unique index still decides under a race.
	_, err := service.repository.FindByEmail(context, email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("Email is already registered")
	case !apperr.HasCode(err, apperr.CodeNotFound):
		return nil, fmt.Errorf("identity_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(account.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	token, digest, err := service.issueToken()
	if err != nil {
		return nil, fmt.Errorf("identity_service_verification_token_failed: %w", err)
	}

	identity := &Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  strings.TrimSpace(account.DisplayName),
		Role:         account.Role,
		Region:       pointer.NilIfZero(strings.TrimSpace(account.Region)),
		IsActive:     account.IsActive,
		IsVerified:   false,
	}

	if err := service.repository.Insert(context, identity, digest); err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict("Email is already registered")
		}
		return nil, fmt.Errorf("identity_service_insert_failed: %w", err)
	}

	service.send(context, mail.Message{
		To:      identity.Email,
		Subject: verificationSubject,
		Body:    fmt.Sprintf(verificationBody, identity.DisplayName, service.link("/verify-email", token)),
	})

	return identity, nil
}

// # Verification Flow

/*
Verify consumes a verification token.

Description: Sets verified and active and clears the token in one conditional
update. An unknown token and an already consumed one fail identically.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: InvalidToken or storage failures
*/
func (service *Service) Verify(context context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.InvalidToken()
	}

	identity, err := service.repository.ConsumeVerificationToken(context, sec.HashToken(token))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return apperr.InvalidToken()
		}
		return fmt.Errorf("identity_service_verify_failed: %w", err)
	}

	service.logger.InfoContext(context, "identity_verified", slog.String("identity_id", identity.ID))
	return nil
}
