// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

// # Data Filter

// Filter narrows a query to the rows a principal may see or mutate.
//
// A nil field means "no restriction on this dimension". Stores must apply
// every non-nil field.
type Filter struct {
	// Region restricts rows to a single region.
	Region *string

	// OwnerID restricts rows to those linked to a single identity.
	OwnerID *string
}

// Unrestricted reports whether the filter admits every row.
func (f Filter) Unrestricted() bool {
	return f.Region == nil && f.OwnerID == nil
}

// AllowsRegion reports whether a row tagged with region passes the region part
// of the filter.
func (f Filter) AllowsRegion(region string) bool {
	return f.Region == nil || *f.Region == region
}

// AllowsOwner reports whether a row linked to ownerID passes the owner part
// of the filter. An unlinked row (nil owner) only passes when no owner
// restriction applies.
func (f Filter) AllowsOwner(ownerID *string) bool {
	if f.OwnerID == nil {
		return true
	}
	return ownerID != nil && *ownerID == *f.OwnerID
}

// FilterFor returns the mandatory data filter for p.
func FilterFor(p Principal) Filter {
	return Match(p.Scope(),
		func(ProvinceWide) Filter {
			return Filter{}
		},
		func(scope Regency) Filter {
			region := scope.Region
			return Filter{Region: &region}
		},
		func(scope Self) Filter {
			owner := scope.IdentityID
			return Filter{OwnerID: &owner}
		},
	)
}
