// Package tests contains integration tests for the membership business flows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/services"
	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	testingutil "github.com/associacao-viver/membership-api/testing"
	"github.com/associacao-viver/membership-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-0123456789abcdef0123456789"

func buildLoginFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.LoginFlow {
	t.Helper()

	tokenService, err := services.NewTokenService(1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", testJWTSecret, nil)
	require.NoError(t, err)

	captchaService, err := services.NewCaptchaServiceRotate(2*time.Minute, 15, 300)
	require.NoError(t, err)

	return businessflow.NewLoginFlow(
		repository.NewMemberRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		tokenService,
		captchaService,
		services.NewBcryptPasswordHasher(bcrypt.MinCost),
		businessflow.NewCredentialGuard(),
		testDB.DB,
	)
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
}

func TestLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		loginFlow := buildLoginFlow(t, testDB)
		ctx := context.Background()

		t.Run("SuccessfulLogin", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			result, err := loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: member.NationalID,
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, member.ID, result.Member.ID)
			assert.Equal(t, member.NationalID, result.Member.NationalID)
			assert.NotEmpty(t, result.Tokens.AccessToken)
			assert.NotEmpty(t, result.Tokens.RefreshToken)
			assert.True(t, result.Tokens.AccessTokenExpiresAt.After(utils.UTCNow()))
		})

		t.Run("PunctuatedNationalIDAccepted", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			// 390.533.447-05 style input reduces to the stored digits
			punctuated := member.NationalID[:3] + "." + member.NationalID[3:6] + "." + member.NationalID[6:9] + "-" + member.NationalID[9:]
			result, err := loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: punctuated,
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, member.ID, result.Member.ID)
		})

		t.Run("MalformedNationalID", func(t *testing.T) {
			_, err := loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: "123",
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidNationalID(err))
		})

		t.Run("UnknownNationalID", func(t *testing.T) {
			_, err := loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: "00000000000",
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMemberNotFound(err))
		})

		t.Run("WrongPasswordIncrementsAttempts", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: member.NationalID,
				Password:   "WrongPass123!",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))

			// The counter survives the failed login
			var reloaded models.Member
			require.NoError(t, testDB.DB.First(&reloaded, member.ID).Error)
			assert.Equal(t, 1, reloaded.LoginAttempts)
			assert.Nil(t, reloaded.LockUntil)
		})

		t.Run("CaptchaRequiredAfterRepeatedFailures", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			for i := 0; i < utils.CaptchaAttemptThreshold; i++ {
				_, err = loginFlow.Login(ctx, &dto.LoginRequest{
					NationalID: member.NationalID,
					Password:   "WrongPass123!",
				}, testMetadata())
				require.Error(t, err)
			}

			// Even the correct password is refused until a captcha is solved
			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: member.NationalID,
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCaptchaRequired(err))
		})

		t.Run("InvalidCaptchaRejected", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			require.NoError(t, testDB.DB.Model(&models.Member{}).Where("id = ?", member.ID).
				Update("login_attempts", utils.CaptchaAttemptThreshold).Error)

			captchaID := "no-such-challenge"
			angle := 42.0
			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID:   member.NationalID,
				Password:     testingutil.TestPassword,
				CaptchaID:    &captchaID,
				CaptchaAngle: &angle,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCaptchaInvalid(err))
		})

		t.Run("LockedAccountRefusesLogin", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			lockUntil := utils.UTCNow().Add(1 * time.Hour)
			require.NoError(t, testDB.DB.Model(&models.Member{}).Where("id = ?", member.ID).
				Updates(map[string]any{"login_attempts": utils.MaxLoginAttempts, "lock_until": lockUntil}).Error)

			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: member.NationalID,
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountLocked(err))
		})

		t.Run("SuccessResetsAttempts", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			require.NoError(t, testDB.DB.Model(&models.Member{}).Where("id = ?", member.ID).
				Update("login_attempts", utils.CaptchaAttemptThreshold-1).Error)

			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: member.NationalID,
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)

			var reloaded models.Member
			require.NoError(t, testDB.DB.First(&reloaded, member.ID).Error)
			assert.Equal(t, 0, reloaded.LoginAttempts)
			assert.Nil(t, reloaded.LockUntil)
		})

		t.Run("InactiveMemberMayLogin", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)
			require.False(t, utils.IsTrue(member.IsActive))

			result, err := loginFlow.Login(ctx, &dto.LoginRequest{
				NationalID: member.NationalID,
				Password:   testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)
			assert.False(t, result.Member.IsActive)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRefreshTokenFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		loginFlow := buildLoginFlow(t, testDB)
		ctx := context.Background()

		member, err := fixtures.CreateTestMember()
		require.NoError(t, err)

		login, err := loginFlow.Login(ctx, &dto.LoginRequest{
			NationalID: member.NationalID,
			Password:   testingutil.TestPassword,
		}, testMetadata())
		require.NoError(t, err)

		t.Run("RefreshIssuesNewPair", func(t *testing.T) {
			refreshed, err := loginFlow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: login.Tokens.RefreshToken,
			}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, refreshed.Tokens.AccessToken)
			assert.NotEmpty(t, refreshed.Tokens.RefreshToken)
			assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)
		})

		t.Run("UsedRefreshTokenIsRevoked", func(t *testing.T) {
			_, err := loginFlow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: login.Tokens.RefreshToken,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidToken(err))
		})

		t.Run("AccessTokenCannotRefresh", func(t *testing.T) {
			_, err := loginFlow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: login.Tokens.AccessToken,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidToken(err))
		})

		t.Run("GarbageTokenRejected", func(t *testing.T) {
			_, err := loginFlow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: "not-a-jwt",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidToken(err))
		})

		return nil
	})
	require.NoError(t, err)
}
