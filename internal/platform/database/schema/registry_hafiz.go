// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// HafizTable represents the 'registry.hafiz' table
type HafizTable struct {
	Table              string
	ID                 string
	RegistrationNumber string
	FullName           string
	Region             string
	AccountID          string
	IncentiveStatus    string
	CreatedAt          string
	UpdatedAt          string
}

// Hafiz is the schema definition for registry.hafiz
var Hafiz = HafizTable{
	Table:              "registry.hafiz",
	ID:                 "id",
	RegistrationNumber: "registrationnumber",
	FullName:           "fullname",
	Region:             "region",
	AccountID:          "accountid",
	IncentiveStatus:    "incentivestatus",
	CreatedAt:          "createdat",
	UpdatedAt:          "updatedat",
}

// Columns returns all standard column names
func (t HafizTable) Columns() []string {
	return []string{
		t.ID, t.RegistrationNumber, t.FullName, t.Region, t.AccountID,
		t.IncentiveStatus, t.CreatedAt, t.UpdatedAt,
	}
}
