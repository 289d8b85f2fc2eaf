// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hafiz

import (
	"context"
	"log/slog"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/validate"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) List(context context.Context, actor access.Principal, limit, offset int) ([]*Hafiz, int, error) {
	return service.repo.List(context, access.FilterFor(actor), limit, offset)
}

func (service *Service) Get(context context.Context, actor access.Principal, id string) (*Hafiz, error) {
	return service.repo.Get(context, access.FilterFor(actor), id)
}

// UpdateIncentive sets the incentive status of a record. Only administrators
// may change it, and only within their scope.
func (service *Service) UpdateIncentive(context context.Context, actor access.Principal, id, status string) (*Hafiz, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperr.Forbidden("Insufficient permissions")
	}

	validator := &validate.Validator{}
	validator.Required(FieldIncentiveStatus, status).OneOf(FieldIncentiveStatus, status, IncentiveStatuses...)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	hafiz, err := service.repo.UpdateIncentive(context, access.FilterFor(actor), id, status)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "hafiz_incentive_updated",
		slog.String("hafiz_id", id),
		slog.String("status", status),
		slog.String("actor_id", actor.ID),
	)
	return hafiz, nil
}
