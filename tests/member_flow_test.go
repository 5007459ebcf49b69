package tests

import (
	"context"
	"testing"

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

func buildMemberFlow(testDB *testingutil.TestDB) businessflow.MemberFlow {
	return businessflow.NewMemberFlow(
		repository.NewMemberRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		services.NewBcryptPasswordHasher(bcrypt.MinCost),
		testDB.DB,
	)
}

func registerRequest(nationalID string) *dto.RegisterMemberRequest {
	return &dto.RegisterMemberRequest{
		NationalID: nationalID,
		FirstName:  "Ana",
		LastName:   "Costa",
		Email:      "ana.costa." + nationalID + "@example.com",
		Password:   testingutil.TestPassword,
	}
}

func TestMemberRegistration(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		memberFlow := buildMemberFlow(testDB)
		ctx := context.Background()

		t.Run("RegisterMember", func(t *testing.T) {
			nationalID := testingutil.RandomNationalID()
			result, err := memberFlow.Register(ctx, registerRequest(nationalID), testMetadata())
			require.NoError(t, err)

			assert.Equal(t, nationalID, result.Member.NationalID)
			assert.Equal(t, string(models.MemberRoleMember), result.Member.Role)
			assert.False(t, result.Member.IsActive)
			assert.NotEmpty(t, result.Member.UUID)
			assert.True(t, result.Member.NextPaymentDue.After(utils.UTCNow()))

			// Password never comes back, and the stored hash is not the plaintext
			var stored models.Member
			require.NoError(t, testDB.DB.Where("national_id = ?", nationalID).First(&stored).Error)
			assert.NotEqual(t, testingutil.TestPassword, stored.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(testingutil.TestPassword)))
		})

		t.Run("PunctuatedNationalIDNormalized", func(t *testing.T) {
			nationalID := testingutil.RandomNationalID()
			punctuated := nationalID[:3] + "." + nationalID[3:6] + "." + nationalID[6:9] + "-" + nationalID[9:]

			result, err := memberFlow.Register(ctx, registerRequest(punctuated), testMetadata())
			require.NoError(t, err)
			assert.Equal(t, nationalID, result.Member.NationalID)
		})

		t.Run("DuplicateNationalIDRejected", func(t *testing.T) {
			nationalID := testingutil.RandomNationalID()
			_, err := memberFlow.Register(ctx, registerRequest(nationalID), testMetadata())
			require.NoError(t, err)

			request := registerRequest(nationalID)
			request.Email = "outra." + nationalID + "@example.com"
			_, err = memberFlow.Register(ctx, request, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsNationalIDAlreadyExists(err))
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			nationalID := testingutil.RandomNationalID()
			first := registerRequest(nationalID)
			_, err := memberFlow.Register(ctx, first, testMetadata())
			require.NoError(t, err)

			second := registerRequest(testingutil.RandomNationalID())
			second.Email = first.Email
			_, err = memberFlow.Register(ctx, second, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("MalformedNationalIDRejected", func(t *testing.T) {
			request := registerRequest(testingutil.RandomNationalID())
			request.NationalID = "12345"
			_, err := memberFlow.Register(ctx, request, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidNationalID(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestMemberProfile(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		memberFlow := buildMemberFlow(testDB)
		ctx := context.Background()

		t.Run("GetProfile", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			profile, err := memberFlow.GetProfile(ctx, member.ID)
			require.NoError(t, err)
			assert.Equal(t, member.NationalID, profile.NationalID)
			assert.Equal(t, member.Email, profile.Email)
			assert.False(t, profile.IsActive)
		})

		t.Run("OverdueFlagSet", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			require.NoError(t, testDB.DB.Model(&models.Member{}).Where("id = ?", member.ID).
				Update("next_payment_due", utils.UTCNow().AddDate(0, 0, -10)).Error)

			profile, err := memberFlow.GetProfile(ctx, member.ID)
			require.NoError(t, err)
			assert.True(t, profile.PaymentOverdue)
		})

		t.Run("UnknownMemberNotFound", func(t *testing.T) {
			_, err := memberFlow.GetProfile(ctx, 999999)
			require.Error(t, err)
			assert.True(t, businessflow.IsMemberNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestMemberStatusToggle(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		memberFlow := buildMemberFlow(testDB)
		ctx := context.Background()

		admin, err := fixtures.CreateTestAdmin()
		require.NoError(t, err)

		t.Run("AdminFlipsStatus", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			result, err := memberFlow.ToggleStatus(ctx, member.UUID.String(), admin.ID, testMetadata())
			require.NoError(t, err)
			assert.True(t, result.Member.IsActive)

			result, err = memberFlow.ToggleStatus(ctx, member.UUID.String(), admin.ID, testMetadata())
			require.NoError(t, err)
			assert.False(t, result.Member.IsActive)
		})

		t.Run("NonAdminForbidden", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)
			other, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			_, err = memberFlow.ToggleStatus(ctx, member.UUID.String(), other.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsForbidden(err))
		})

		t.Run("UnknownMemberNotFound", func(t *testing.T) {
			_, err := memberFlow.ToggleStatus(ctx, "00000000-0000-0000-0000-000000000000", admin.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMemberNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
