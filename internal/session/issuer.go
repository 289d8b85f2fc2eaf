// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session issues, resolves, and clears the signed session credential
carried in the session cookie.

# Lifecycle

  - Issue: signs a credential for a principal and writes it as an HttpOnly cookie.
  - Resolve: verifies the cookie on an inbound request. Any failure means
    "anonymous"; Resolve never returns an error.
  - Clear: expires the cookie on the client.
  - Revoke: adds the credential id to the optional [RevocationStore] so a copy
    of the cookie stops working before it expires.
*/
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/constants"
	"github.com/taibuivan/hafiz/internal/platform/sec"
)

// RevocationStore remembers credential ids that must no longer resolve.
type RevocationStore interface {
	// Revoke marks id as revoked until the given time. Entries past that
	// time may be forgotten: the credential has expired anyway.
	Revoke(context context.Context, id string, until time.Time) error

	// IsRevoked reports whether id has been revoked.
	IsRevoked(context context.Context, id string) (bool, error)
}

// Options configures cookie transport.
type Options struct {
	TTL    time.Duration
	Secure bool
}

// Issuer converts principals into session credentials and back.
type Issuer struct {
	signer      *sec.SessionSigner
	options     Options
	revocations RevocationStore
	logger      *slog.Logger
}

// NewIssuer constructs an [Issuer]. revocations may be nil, in which case a
// credential stays valid until its expiry.
func NewIssuer(signer *sec.SessionSigner, options Options, revocations RevocationStore, logger *slog.Logger) *Issuer {
	return &Issuer{
		signer:      signer,
		options:     options,
		revocations: revocations,
		logger:      logger,
	}
}

// # Issuance

/*
Issue mints a credential for principal and attaches it to the response.

Parameters:
  - writer: http.ResponseWriter
  - principal: access.Principal

Returns:
  - *sec.SessionClaims: The embedded claims (id, subject, expiry)
  - error: Signing failures
*/
func (issuer *Issuer) Issue(writer http.ResponseWriter, principal access.Principal) (*sec.SessionClaims, error) {
	token, claims, err := issuer.signer.Sign(principal.ID, principal.Role, principal.Region, issuer.options.TTL)
	if err != nil {
		return nil, err
	}

	http.SetCookie(writer, issuer.cookie(token, int(issuer.options.TTL/time.Second)))
	return claims, nil
}

// Clear expires the session cookie on the client. It is safe to call on a
// request that carried no cookie.
func (issuer *Issuer) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, issuer.cookie("", -1))
}

func (issuer *Issuer) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     constants.SessionCookiePath,
		MaxAge:   maxAge,
		Secure:   issuer.options.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// # Resolution

/*
Resolve verifies the session cookie on request.

Returns nil for a missing, malformed, tampered, expired, or revoked
credential. When the revocation store cannot be reached the request is
treated as anonymous.
*/
func (issuer *Issuer) Resolve(request *http.Request) *sec.SessionClaims {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims, err := issuer.signer.Verify(cookie.Value)
	if err != nil {
		issuer.logger.DebugContext(request.Context(), "session_rejected", slog.String("reason", err.Error()))
		return nil
	}

	if issuer.revocations == nil {
		return claims
	}

	revoked, err := issuer.revocations.IsRevoked(request.Context(), claims.ID)
	if err != nil {
		issuer.logger.WarnContext(request.Context(), "session_revocation_check_failed",
			slog.String("session_id", claims.ID),
			slog.Any("error", err),
		)
		return nil
	}
	if revoked {
		return nil
	}

	return claims
}

// Revoke makes claims unusable until their natural expiry.
//
// Without a configured store it is a no-op.
func (issuer *Issuer) Revoke(context context.Context, claims *sec.SessionClaims) error {
	if issuer.revocations == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return issuer.revocations.Revoke(context, claims.ID, claims.ExpiresAt.Time)
}

// Principal projects verified claims onto an [access.Principal].
func Principal(claims *sec.SessionClaims) access.Principal {
	return access.Principal{
		ID:     claims.Subject,
		Role:   claims.Role,
		Region: claims.Region,
	}
}
