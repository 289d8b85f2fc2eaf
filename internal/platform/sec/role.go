// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted region visibility across the province
	RoleProvinceAdmin Role = "province_admin"

	// Confined to the single regency/city assigned to the account
	RoleRegencyAdmin Role = "regency_admin"

	// Self-service end user linked to one hafiz record
	RoleHafiz Role = "hafiz"
)

// Roles lists every role the system knows about.
var Roles = []Role{RoleProvinceAdmin, RoleRegencyAdmin, RoleHafiz}

// Valid reports whether r is one of the three fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProvinceAdmin, RoleRegencyAdmin, RoleHafiz:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r is one of the administrative roles.
func (r Role) IsAdmin() bool {
	return r == RoleProvinceAdmin || r == RoleRegencyAdmin
}

// RequiresRegion reports whether an account holding r must carry a region.
// Only the province-wide role is region-less.
func (r Role) RequiresRegion() bool {
	return r == RoleRegencyAdmin || r == RoleHafiz
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
