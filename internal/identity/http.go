// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/ctxutil"
	"github.com/taibuivan/hafiz/internal/platform/middleware"
	requestutil "github.com/taibuivan/hafiz/internal/platform/request"
	"github.com/taibuivan/hafiz/internal/platform/respond"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/internal/session"
	"github.com/taibuivan/hafiz/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the identity HTTP endpoints.
//
// It is the only place that touches the session cookie: the service decides
// who may log in, the handler asks the [session.Issuer] to attach or clear
// the credential.
type Handler struct {
	service *Service
	issuer  *session.Issuer
	limiter *middleware.RateLimiter
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, issuer *session.Issuer, limiter *middleware.RateLimiter) *Handler {
	return &Handler{service: service, issuer: issuer, limiter: limiter}
}

// AuthRoutes returns the router mounted at /api/v1/auth.
//
// # Endpoints
//   - POST /register        : Creates a pending account.
//   - GET  /verify          : Consumes a verification token.
//   - POST /login           : Sets the session cookie.
//   - POST /logout          : Revokes and clears the session cookie.
//   - GET  /me              : Returns the current account.
//   - POST /change-password : Rotates the password.
//   - POST /forgot-password : Mails a reset link (always 200).
//   - GET  /reset-password  : Checks a reset token.
//   - POST /reset-password  : Consumes a reset token.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()

	// Credential endpoints are throttled per client IP
	router.Group(func(limited chi.Router) {
		limited.Use(handler.limiter.Handler)
		limited.Post("/register", handler.register)
		limited.Post("/login", handler.login)
		limited.Post("/forgot-password", handler.forgotPassword)
		limited.Post("/reset-password", handler.resetPassword)
	})

	router.Get("/verify", handler.verify)
	router.Get("/reset-password", handler.validateResetToken)

	// Idempotent: clearing a missing session still succeeds
	router.Post("/logout", handler.logout)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/me", handler.me)
		protected.Post("/change-password", handler.changePassword)
	})

	return router
}

// AdminRoutes returns the router mounted at /api/v1/identities.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(access.Admins...))

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Post("/{id}/deactivate", handler.deactivate)

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Region      string `json:"region"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type createRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DisplayName string   `json:"display_name"`
	Role        sec.Role `json:"role"`
	Region      string   `json:"region"`
}

// # Registration & Verification

/*
Register enrolls a new hafiz account.

POST /api/v1/auth/register

Response:
  - 201: View (pending account, no token)
  - 400: VALIDATION_ERROR
  - 409: CONFLICT (email already registered)
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.service.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Region:      input.Region,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, identity.View())
}

/*
Verify confirms an email address.

GET /api/v1/auth/verify?token=

Response:
  - 200: Verified
  - 400: INVALID_TOKEN (unknown or already used)
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Verify(request.Context(), requestutil.Query(request, FieldToken)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Email verified. You can now sign in."})
}

// # Session Lifecycle

/*
Login authenticates and attaches the session cookie.

POST /api/v1/auth/login

Response:
  - 200: View
  - 401: INVALID_CREDENTIALS (unknown email, inactive account, or wrong password)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.service.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.issuer.Issue(writer, identity.Principal()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.View())
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Response:
  - 204: Always
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.service.Logout(request.Context(), ctxutil.GetSession(request.Context()))
	handler.issuer.Clear(writer)
	respond.NoContent(writer)
}

/*
Me returns the account behind the current session.

GET /api/v1/auth/me

Response:
  - 200: View
  - 401: UNAUTHORIZED
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.service.CurrentIdentity(request.Context(), principal.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.View())
}

/*
ChangePassword rotates the caller's password.

POST /api/v1/auth/change-password

Response:
  - 204: Changed
  - 400: VALIDATION_ERROR (new password too short)
  - 401: UNAUTHORIZED (current password wrong)
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), principal.ID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Password Recovery

/*
ForgotPassword requests a reset link.

POST /api/v1/auth/forgot-password

Response:
  - 200: Same body whether or not the email is registered
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If the email is registered, a reset link has been sent.",
	})
}

/*
ValidateResetToken tells the client whether to show the reset form.

GET /api/v1/auth/reset-password?token=

Response:
  - 200: {"valid": true}
  - 400: INVALID_OR_EXPIRED_TOKEN
*/
func (handler *Handler) validateResetToken(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.ValidateResetToken(request.Context(), requestutil.Query(request, FieldToken)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{FieldValid: true})
}

/*
ResetPassword sets a new password using a reset token.

POST /api/v1/auth/reset-password

Response:
  - 204: Reset
  - 400: VALIDATION_ERROR or INVALID_OR_EXPIRED_TOKEN
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administration

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	identities, total, err := handler.service.List(request.Context(), *principal, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, Views(identities), pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.service.Create(request.Context(), *principal, CreateInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Role:        input.Role,
		Region:      input.Region,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, identity.View())
}

func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Deactivate(request.Context(), *principal, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
