// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/ctxutil"
	"github.com/taibuivan/hafiz/internal/platform/respond"
	"github.com/taibuivan/hafiz/internal/platform/sec"
)

// PrincipalResolver turns an inbound request into the caller it represents.
//
// Implementations return (nil, nil) for anonymous requests. They never fail:
// a missing, malformed, expired, or revoked credential is anonymous.
type PrincipalResolver interface {
	ResolvePrincipal(request *http.Request) (*access.Principal, *sec.SessionClaims)
}

// Authenticate resolves the caller of every request and stores it in the context.
//
// Mount it directly after [StructuredLogger] so the access log can name the caller.
//
// # Flow
//  1. Ask the [PrincipalResolver] who is calling.
//  2. If nobody, the request proceeds as anonymous.
//  3. Otherwise inject the [*access.Principal] and its session claims.
//
// It never rejects a request; use [RequireAuth] or [RequireRole] for that.
func Authenticate(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal, claims := resolver.ResolvePrincipal(request)
			if principal == nil {
				next.ServeHTTP(writer, request)
				return
			}

			recordPrincipal(writer, principal)

			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			ctx = ctxutil.WithSession(ctx, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return RequireRole(access.Everyone...)(next)
}

// RequireRole blocks requests whose caller role is not in allowed.
//
// It implies [RequireAuth]. Region visibility is left to the handler, which
// must derive its data filter with [access.FilterFor].
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			decision := access.Require(ctxutil.GetPrincipal(request.Context()), allowed...)
			if !decision.Authenticated {
				respond.Error(writer, request, decision.Err)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
