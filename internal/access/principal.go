// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access implements role admission and region scoping for protected operations.

# Architecture

Two separate decisions are made for every protected request:

  - Admission: [Require] decides whether the caller's role may invoke the
    operation at all. It never looks at data.
  - Visibility: [FilterFor] derives the data filter a store must apply. It is
    computed from the caller's [Scope] through [Match], which forces every
    caller to handle all three scopes explicitly.
*/
package access

import "github.com/taibuivan/hafiz/internal/platform/sec"

// # Principal

// Principal is the resolved caller of a request.
type Principal struct {
	ID     string   `json:"id"`
	Role   sec.Role `json:"role"`
	Region string   `json:"region,omitempty"`
}

// # Scope Variant

// Scope is the closed set of data visibilities a principal can hold.
//
// The unexported marker method keeps the set sealed to this package.
type Scope interface {
	scope()
}

// ProvinceWide sees every region.
type ProvinceWide struct{}

// Regency sees exactly one region.
type Regency struct {
	Region string
}

// Self sees only records linked to its own identity.
type Self struct {
	IdentityID string
}

func (ProvinceWide) scope() {}
func (Regency) scope()      {}
func (Self) scope()         {}

// Scope derives the visibility of p from its role.
//
// Unknown roles collapse to [Self], the narrowest scope.
func (p Principal) Scope() Scope {
	switch p.Role {
	case sec.RoleProvinceAdmin:
		return ProvinceWide{}
	case sec.RoleRegencyAdmin:
		return Regency{Region: p.Region}
	default:
		return Self{IdentityID: p.ID}
	}
}

// Match dispatches on s, calling exactly one of the three handlers.
func Match[T any](s Scope, onProvince func(ProvinceWide) T, onRegency func(Regency) T, onSelf func(Self) T) T {
	switch v := s.(type) {
	case ProvinceWide:
		return onProvince(v)
	case Regency:
		return onRegency(v)
	case Self:
		return onSelf(v)
	default:
		// Unreachable: Scope is sealed.
		panic("access: unknown scope")
	}
}
