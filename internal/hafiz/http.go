// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hafiz

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/middleware"
	requestutil "github.com/taibuivan/hafiz/internal/platform/request"
	"github.com/taibuivan/hafiz/internal/platform/respond"
	"github.com/taibuivan/hafiz/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /api/v1/hafiz.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	router.With(middleware.RequireRole(access.Admins...)).Patch("/{id}/incentive", handler.updateIncentive)

	return router
}

type incentiveRequest struct {
	IncentiveStatus string `json:"incentive_status"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	records, total, err := handler.service.List(request.Context(), *principal, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	hafiz, err := handler.service.Get(request.Context(), *principal, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, hafiz)
}

func (handler *Handler) updateIncentive(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input incentiveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	hafiz, err := handler.service.UpdateIncentive(request.Context(), *principal, requestutil.Param(request, "id"), input.IncentiveStatus)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, hafiz)
}
