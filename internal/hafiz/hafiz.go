// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package hafiz exposes the registry of certified memorizers, scoped by the
// caller's region.
package hafiz

import "time"

// Hafiz is one registry record. AccountID links it to the identity of its
// owner and is cleared when that account is deactivated.
type Hafiz struct {
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registration_number"`
	FullName           string    `json:"full_name"`
	Region             string    `json:"region"`
	AccountID          *string   `json:"account_id,omitempty"`
	IncentiveStatus    string    `json:"incentive_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Incentive statuses.
const (
	IncentivePending   = "pending"
	IncentiveEligible  = "eligible"
	IncentivePaid      = "paid"
	IncentiveSuspended = "suspended"
)

// IncentiveStatuses lists every accepted incentive status.
var IncentiveStatuses = []string{IncentivePending, IncentiveEligible, IncentivePaid, IncentiveSuspended}

const (
	FieldIncentiveStatus = "incentive_status"
)
