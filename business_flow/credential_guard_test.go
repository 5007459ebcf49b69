package businessflow

import (
	"testing"
	"time"

	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/utils"
	"github.com/stretchr/testify/assert"
)

func TestCredentialGuardCaptchaThreshold(t *testing.T) {
	guard := NewCredentialGuard()

	member := &models.Member{}
	assert.False(t, guard.RequiresCaptcha(member))

	member.LoginAttempts = utils.CaptchaAttemptThreshold - 1
	assert.False(t, guard.RequiresCaptcha(member))

	member.LoginAttempts = utils.CaptchaAttemptThreshold
	assert.True(t, guard.RequiresCaptcha(member))

	member.LoginAttempts = utils.CaptchaAttemptThreshold + 2
	assert.True(t, guard.RequiresCaptcha(member))
}

func TestCredentialGuardLockout(t *testing.T) {
	guard := NewCredentialGuard()
	now := utils.UTCNow()

	member := &models.Member{}
	for i := 1; i < guard.MaxAttempts; i++ {
		locked := guard.RecordFailure(member, now)
		assert.False(t, locked, "attempt %d should not lock", i)
		assert.Equal(t, i, member.LoginAttempts)
		assert.Nil(t, member.LockUntil)
	}

	locked := guard.RecordFailure(member, now)
	assert.True(t, locked)
	assert.Equal(t, guard.MaxAttempts, member.LoginAttempts)
	if assert.NotNil(t, member.LockUntil) {
		assert.Equal(t, now.Add(guard.LockDuration), *member.LockUntil)
	}
	assert.True(t, guard.IsLocked(member, now))
	assert.True(t, guard.IsLocked(member, now.Add(guard.LockDuration-time.Second)))
	assert.False(t, guard.IsLocked(member, now.Add(guard.LockDuration+time.Second)))
}

func TestCredentialGuardForgivesExpiredLock(t *testing.T) {
	guard := NewCredentialGuard()
	now := utils.UTCNow()

	member := &models.Member{
		LoginAttempts: guard.MaxAttempts,
		LockUntil:     utils.ToPtr(now.Add(-1 * time.Minute)),
	}

	// The first failure after an expired lock restarts the counter; it must
	// not re-lock on the spot.
	locked := guard.RecordFailure(member, now)
	assert.False(t, locked)
	assert.Equal(t, 1, member.LoginAttempts)
	assert.Nil(t, member.LockUntil)
}

func TestCredentialGuardActiveLockKeepsCounting(t *testing.T) {
	guard := NewCredentialGuard()
	now := utils.UTCNow()

	member := &models.Member{
		LoginAttempts: guard.MaxAttempts,
		LockUntil:     utils.ToPtr(now.Add(10 * time.Minute)),
	}

	locked := guard.RecordFailure(member, now)
	assert.True(t, locked)
	assert.Equal(t, guard.MaxAttempts+1, member.LoginAttempts)
}

func TestCredentialGuardSuccessResets(t *testing.T) {
	guard := NewCredentialGuard()
	now := utils.UTCNow()

	member := &models.Member{
		LoginAttempts: guard.MaxAttempts - 1,
		LockUntil:     utils.ToPtr(now.Add(-1 * time.Minute)),
	}

	guard.RecordSuccess(member)
	assert.Equal(t, 0, member.LoginAttempts)
	assert.Nil(t, member.LockUntil)
	assert.False(t, guard.RequiresCaptcha(member))
}

func TestCredentialGuardCustomPolicy(t *testing.T) {
	guard := CredentialGuard{
		MaxAttempts:      2,
		LockDuration:     5 * time.Minute,
		CaptchaThreshold: 1,
	}
	now := utils.UTCNow()

	member := &models.Member{}
	assert.False(t, guard.RecordFailure(member, now))
	assert.True(t, guard.RequiresCaptcha(member))
	assert.True(t, guard.RecordFailure(member, now))
	assert.True(t, guard.IsLocked(member, now))
}
