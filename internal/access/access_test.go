// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/sec"
)

/*
TestRequire verifies admission by role, independent of region.
*/
func TestRequire(t *testing.T) {
	regency := &access.Principal{ID: "r1", Role: sec.RoleRegencyAdmin, Region: "A"}
	hafiz := &access.Principal{ID: "h1", Role: sec.RoleHafiz}

	tests := []struct {
		name      string
		principal *access.Principal
		allowed   []sec.Role
		wantCode  string
	}{
		{"anonymous", nil, access.Admins, apperr.CodeUnauthorized},
		{"role_not_allowed", hafiz, access.Admins, apperr.CodeForbidden},
		{"admitted", regency, access.Admins, ""},
		{"everyone_admits_hafiz", hafiz, access.Everyone, ""},
		{"empty_allowed_set", regency, nil, apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := access.Require(tt.principal, tt.allowed...)

			if tt.wantCode == "" {
				require.NoError(t, decision.Err)
				assert.True(t, decision.Authenticated)
				assert.Same(t, tt.principal, decision.Principal)
				return
			}

			assert.False(t, decision.Authenticated)
			assert.Nil(t, decision.Principal)
			assert.True(t, apperr.HasCode(decision.Err, tt.wantCode))
		})
	}
}

/*
TestFilterFor verifies the mandatory data filter produced for each role.
*/
func TestFilterFor(t *testing.T) {
	t.Run("province_admin_is_unrestricted", func(t *testing.T) {
		filter := access.FilterFor(access.Principal{ID: "p", Role: sec.RoleProvinceAdmin, Region: "X"})
		assert.True(t, filter.Unrestricted())
		assert.True(t, filter.AllowsRegion("A"))
		assert.True(t, filter.AllowsRegion("B"))
	})

	t.Run("regency_admin_sees_own_region_only", func(t *testing.T) {
		filter := access.FilterFor(access.Principal{ID: "r", Role: sec.RoleRegencyAdmin, Region: "A"})
		require.NotNil(t, filter.Region)
		assert.Equal(t, "A", *filter.Region)
		assert.Nil(t, filter.OwnerID)
		assert.True(t, filter.AllowsRegion("A"))
		assert.False(t, filter.AllowsRegion("B"))
	})

	t.Run("hafiz_sees_own_records_only", func(t *testing.T) {
		filter := access.FilterFor(access.Principal{ID: "h1", Role: sec.RoleHafiz})
		require.NotNil(t, filter.OwnerID)
		assert.Equal(t, "h1", *filter.OwnerID)

		own, other := "h1", "h2"
		assert.True(t, filter.AllowsOwner(&own))
		assert.False(t, filter.AllowsOwner(&other))
		assert.False(t, filter.AllowsOwner(nil))
	})

	t.Run("unknown_role_collapses_to_self", func(t *testing.T) {
		filter := access.FilterFor(access.Principal{ID: "u", Role: sec.Role("auditor")})
		require.NotNil(t, filter.OwnerID)
		assert.Equal(t, "u", *filter.OwnerID)
	})
}

/*
TestMatch verifies that exactly one handler runs per scope.
*/
func TestMatch(t *testing.T) {
	describe := func(s access.Scope) string {
		return access.Match(s,
			func(access.ProvinceWide) string { return "province" },
			func(r access.Regency) string { return "regency:" + r.Region },
			func(s access.Self) string { return "self:" + s.IdentityID },
		)
	}

	assert.Equal(t, "province", describe(access.ProvinceWide{}))
	assert.Equal(t, "regency:B", describe(access.Regency{Region: "B"}))
	assert.Equal(t, "self:x", describe(access.Self{IdentityID: "x"}))
}
