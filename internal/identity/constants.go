// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import "time"

// # Credential Constraints

const (
	// MinPasswordLength is the shortest password accepted anywhere.
	MinPasswordLength = 6

	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72

	// MaxDisplayNameLength bounds display names.
	MaxDisplayNameLength = 120

	// MaxRegionLength bounds region codes.
	MaxRegionLength = 64

	// DefaultResetTokenTTL applies when no window is configured.
	DefaultResetTokenTTL = 1 * time.Hour
)

// # Mail Templates

const (
	verificationSubject = "Confirm your email address"
	verificationBody    = "Assalamu'alaikum %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not create this account you can ignore this message.\n"

	resetSubject = "Reset your password"
	resetBody    = "Assalamu'alaikum %s,\n\nA password reset was requested for your account. The link below is valid until %s:\n\n%s\n\nIf you did not request this you can ignore this message.\n"
)
