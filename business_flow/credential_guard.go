package businessflow

import (
	"time"

	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/utils"
)

// CredentialGuard implements the login lockout policy. Its methods mutate the
// member in memory only; callers persist the login-protection columns.
type CredentialGuard struct {
	MaxAttempts      int
	LockDuration     time.Duration
	CaptchaThreshold int
}

// NewCredentialGuard creates a guard with the default policy
func NewCredentialGuard() CredentialGuard {
	return CredentialGuard{
		MaxAttempts:      utils.MaxLoginAttempts,
		LockDuration:     utils.LoginLockDuration,
		CaptchaThreshold: utils.CaptchaAttemptThreshold,
	}
}

// IsLocked reports whether login must be refused at the given instant
func (g CredentialGuard) IsLocked(member *models.Member, now time.Time) bool {
	return member.IsLockedAt(now)
}

// RequiresCaptcha reports whether the account accumulated enough failures
// that a captcha must accompany the next attempt
func (g CredentialGuard) RequiresCaptcha(member *models.Member) bool {
	return member.LoginAttempts >= g.CaptchaThreshold
}

// RecordFailure counts a failed password attempt and reports whether the
// account just became locked. An expired lock is forgiven first: the counter
// restarts instead of locking again immediately.
func (g CredentialGuard) RecordFailure(member *models.Member, now time.Time) (locked bool) {
	if member.LockUntil != nil && !member.LockUntil.After(now) {
		member.LockUntil = nil
		member.LoginAttempts = 0
	}

	member.LoginAttempts++
	if member.LoginAttempts >= g.MaxAttempts {
		member.LockUntil = utils.ToPtr(now.Add(g.LockDuration))
		return true
	}
	return false
}

// RecordSuccess clears the failure counter after a successful login
func (g CredentialGuard) RecordSuccess(member *models.Member) {
	member.LoginAttempts = 0
	member.LockUntil = nil
}
