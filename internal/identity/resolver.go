// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/internal/session"
)

// Resolver implements middleware.PrincipalResolver on top of the session
// cookie and the Credential Store.
type Resolver struct {
	issuer  *session.Issuer
	service *Service
	logger  *slog.Logger
}

// NewResolver creates a [Resolver].
func NewResolver(issuer *session.Issuer, service *Service, logger *slog.Logger) *Resolver {
	return &Resolver{issuer: issuer, service: service, logger: logger}
}

// ResolvePrincipal returns the live caller of request, or nil.
//
// The credential only proves who the caller was at login; role, region and
// the active flag are read back from storage. Storage errors yield nil.
func (resolver *Resolver) ResolvePrincipal(request *http.Request) (*access.Principal, *sec.SessionClaims) {
	claims := resolver.issuer.Resolve(request)
	if claims == nil {
		return nil, nil
	}

	identity, err := resolver.service.CurrentIdentity(request.Context(), claims.Subject)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeUnauthorized) {
			resolver.logger.ErrorContext(request.Context(), "session_identity_lookup_failed",
				slog.String("identity_id", claims.Subject),
				slog.Any("error", err),
			)
		}
		return nil, nil
	}

	principal := identity.Principal()
	return &principal, claims
}
