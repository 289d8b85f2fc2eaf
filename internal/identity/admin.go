// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/internal/platform/validate"
	"github.com/taibuivan/hafiz/pkg/pointer"
)

// # Administrative Management

// CreateInput holds the fields an administrator supplies for a new account.
type CreateInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        sec.Role
	Region      string
}

// Create opens an account on behalf of actor.
//
// Province admins may create regency admins and hafiz accounts in any region;
// regency admins may create hafiz accounts in their own region only. The
// account is active but unverified until its owner verifies the email or
// changes the initial password.
func (service *Service) Create(context context.Context, actor access.Principal, input CreateInput) (*Identity, error) {
	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, MaxDisplayNameLength).
		Role(FieldRole, input.Role).
		Custom(FieldRegion, input.Role.RequiresRegion() && strings.TrimSpace(input.Region) == "", "This field is required").
		MaxLen(FieldRegion, input.Region, MaxRegionLength).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Custom(FieldPassword, len(input.Password) > MaxPasswordLength, fmt.Sprintf("Maximum %d bytes", MaxPasswordLength))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	err := access.Match(actor.Scope(),
		func(access.ProvinceWide) error {
			if input.Role == sec.RoleProvinceAdmin {
				return apperr.Forbidden("Province admin accounts cannot be created through the API")
			}
			return nil
		},
		func(scope access.Regency) error {
			if input.Role != sec.RoleHafiz {
				return apperr.Forbidden("Regency admins may only create hafiz accounts")
			}
			if input.Region != scope.Region {
				return apperr.Forbidden("Accounts can only be created in your own region")
			}
			return nil
		},
		func(access.Self) error {
			return apperr.Forbidden("Insufficient permissions")
		},
	)
	if err != nil {
		return nil, err
	}

	identity, err := service.createIdentity(context, newAccount{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Role:        input.Role,
		Region:      input.Region,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "identity_created",
		slog.String("identity_id", identity.ID),
		slog.String("role", identity.Role.String()),
		slog.String("actor_id", actor.ID),
	)
	return identity, nil
}

// List returns the accounts visible to actor.
func (service *Service) List(context context.Context, actor access.Principal, limit, offset int) ([]*Identity, int, error) {
	identities, total, err := service.repository.List(context, access.FilterFor(actor), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("identity_service_list_failed: %w", err)
	}
	return identities, total, nil
}

/*
Deactivate disables the account id on behalf of actor.

Description: A regency admin only sees hafiz accounts of their own region;
anything else is reported as NOT_FOUND so other regions cannot be probed.
Nobody can deactivate themselves.

Parameters:
  - context: context.Context
  - actor: access.Principal
  - id: string

Returns:
  - error: Forbidden, NotFound, or storage failures
*/
func (service *Service) Deactivate(context context.Context, actor access.Principal, id string) error {
	if id == actor.ID {
		return apperr.Forbidden("You cannot deactivate your own account")
	}

	target, err := service.repository.FindByID(context, id)
	if err != nil {
		return err
	}

	filter := access.FilterFor(actor)
	visible := filter.AllowsRegion(pointer.Val(target.Region)) && filter.AllowsOwner(&target.ID)
	if !visible {
		return apperr.NotFound(resourceName)
	}

	err = access.Match(actor.Scope(),
		func(access.ProvinceWide) error { return nil },
		func(access.Regency) error {
			if target.Role != sec.RoleHafiz {
				return apperr.Forbidden("Regency admins may only deactivate hafiz accounts")
			}
			return nil
		},
		func(access.Self) error { return apperr.Forbidden("Insufficient permissions") },
	)
	if err != nil {
		return err
	}

	if err := service.repository.Deactivate(context, id); err != nil {
		return err
	}

	service.logger.WarnContext(context, "identity_deactivated",
		slog.String("identity_id", id),
		slog.String("actor_id", actor.ID),
	)
	return nil
}
