package utils

import (
	"time"
)

// Login protection constants
const (
	// MaxLoginAttempts is the number of consecutive failed logins that triggers a lockout
	MaxLoginAttempts = 5

	// LoginLockDuration is how long an account stays locked after too many failures (2 hours)
	LoginLockDuration = 2 * time.Hour

	// CaptchaAttemptThreshold is the failed-attempt count after which a captcha is required
	CaptchaAttemptThreshold = 3

	// CaptchaTTL is the validity window of a generated captcha challenge
	CaptchaTTL = 2 * time.Minute
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Membership and payment constants
const (
	// MembershipRenewalMonths is how many calendar months a single approved payment buys
	MembershipRenewalMonths = 1

	// RegistrationDuePlaceholder is the provisional due window granted at registration,
	// before the first payment is approved
	RegistrationDuePlaceholder = 30 * 24 * time.Hour

	// PaymentExpiryDays is added to a payment's due date to derive its expiry
	// when no explicit expiry is provided
	PaymentExpiryDays = 30

	// CPFLength and CNPJLength are the digits-only lengths of Brazilian
	// individual and company registration numbers
	CPFLength  = 11
	CNPJLength = 14

	// MaxReceiptSize caps uploaded receipt files (5MB)
	MaxReceiptSize = 5 * 1024 * 1024
)

// HTTP constants
const (
	// CORSMaxAge is how long browsers may cache preflight responses, in seconds
	CORSMaxAge = 86400
)
