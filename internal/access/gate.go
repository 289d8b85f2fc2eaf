// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"slices"

	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/sec"
)

// # Admission Gate

// Decision is the outcome of [Require].
type Decision struct {
	// Authenticated is true only when the caller is resolved and admitted.
	Authenticated bool

	// Principal is the admitted caller, nil when Err is set.
	Principal *Principal

	// Err is Unauthorized for anonymous callers and Forbidden for callers whose
	// role is not in the allowed set.
	Err error
}

// Require admits principal when its role is in allowedRoles.
//
// Region visibility is not decided here; use [FilterFor] on the admitted
// principal before touching data.
func Require(principal *Principal, allowedRoles ...sec.Role) Decision {
	if principal == nil {
		return Decision{Err: apperr.Unauthorized("Authentication required")}
	}

	if !slices.Contains(allowedRoles, principal.Role) {
		return Decision{Err: apperr.Forbidden("Insufficient permissions")}
	}

	return Decision{Authenticated: true, Principal: principal}
}

// Admins is the role set shared by administrative operations.
var Admins = []sec.Role{sec.RoleProvinceAdmin, sec.RoleRegencyAdmin}

// Everyone admits any authenticated principal.
var Everyone = sec.Roles
