// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the table and column names used by the Postgres adapters.
package schema

// IdentityTable represents the 'users.identity' table
type IdentityTable struct {
	Table                 string
	ID                    string
	Email                 string
	Password              string
	DisplayName           string
	Role                  string
	Region                string
	IsActive              string
	IsVerified            string
	VerificationTokenHash string
	ResetTokenHash        string
	ResetExpiresAt        string
	CreatedAt             string
	UpdatedAt             string
}

// Identity is the schema definition for users.identity
var Identity = IdentityTable{
	Table:                 "users.identity",
	ID:                    "id",
	Email:                 "email",
	Password:              "passwordhash",
	DisplayName:           "displayname",
	Role:                  "role",
	Region:                "region",
	IsActive:              "isactive",
	IsVerified:            "isverified",
	VerificationTokenHash: "verificationtokenhash",
	ResetTokenHash:        "resettokenhash",
	ResetExpiresAt:        "resetexpiresat",
	CreatedAt:             "createdat",
	UpdatedAt:             "updatedat",
}

// Columns returns the columns hydrated into an identity read model, in scan order.
func (t IdentityTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.DisplayName, t.Role, t.Region,
		t.IsActive, t.IsVerified, t.CreatedAt, t.UpdatedAt,
	}
}
