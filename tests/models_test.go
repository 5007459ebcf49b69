package tests

import (
	"testing"
	"time"

	"github.com/associacao-viver/membership-api/models"
	testingutil "github.com/associacao-viver/membership-api/testing"
	"github.com/associacao-viver/membership-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberPredicates(t *testing.T) {
	now := utils.UTCNow()

	t.Run("IsAdmin", func(t *testing.T) {
		assert.True(t, (&models.Member{Role: models.MemberRoleAdmin}).IsAdmin())
		assert.False(t, (&models.Member{Role: models.MemberRoleMember}).IsAdmin())
	})

	t.Run("IsLockedAt", func(t *testing.T) {
		future := now.Add(1 * time.Hour)
		past := now.Add(-1 * time.Hour)

		assert.True(t, (&models.Member{LockUntil: &future}).IsLockedAt(now))
		assert.False(t, (&models.Member{LockUntil: &past}).IsLockedAt(now))
		assert.False(t, (&models.Member{}).IsLockedAt(now))
	})

	t.Run("IsPaymentOverdue", func(t *testing.T) {
		assert.True(t, (&models.Member{NextPaymentDue: now.AddDate(0, 0, -1)}).IsPaymentOverdue())
		assert.False(t, (&models.Member{NextPaymentDue: now.AddDate(0, 0, 1)}).IsPaymentOverdue())
	})
}

func TestPaymentPredicates(t *testing.T) {
	now := utils.UTCNow()

	t.Run("IsPending", func(t *testing.T) {
		assert.True(t, (&models.Payment{Status: models.PaymentStatusPending}).IsPending())
		assert.False(t, (&models.Payment{Status: models.PaymentStatusApproved}).IsPending())
	})

	t.Run("IsFinal", func(t *testing.T) {
		assert.False(t, (&models.Payment{Status: models.PaymentStatusPending}).IsFinal())
		assert.True(t, (&models.Payment{Status: models.PaymentStatusApproved}).IsFinal())
		assert.True(t, (&models.Payment{Status: models.PaymentStatusRejected}).IsFinal())
		assert.True(t, (&models.Payment{Status: models.PaymentStatusCancelled}).IsFinal())
	})

	t.Run("IsExpired", func(t *testing.T) {
		past := now.Add(-1 * time.Hour)
		future := now.Add(1 * time.Hour)

		assert.True(t, (&models.Payment{Status: models.PaymentStatusPending, ExpiresAt: &past}).IsExpired())
		assert.False(t, (&models.Payment{Status: models.PaymentStatusPending, ExpiresAt: &future}).IsExpired())
		assert.False(t, (&models.Payment{Status: models.PaymentStatusPending}).IsExpired())
		// A decided payment never expires retroactively
		assert.False(t, (&models.Payment{Status: models.PaymentStatusApproved, ExpiresAt: &past}).IsExpired())
	})

	t.Run("IsOverdue", func(t *testing.T) {
		past := now.Add(-1 * time.Hour)
		future := now.Add(1 * time.Hour)

		assert.True(t, (&models.Payment{Status: models.PaymentStatusPending, DueDate: past}).IsOverdue())
		assert.False(t, (&models.Payment{Status: models.PaymentStatusPending, DueDate: future}).IsOverdue())
		// Settling the payment clears the overdue state
		assert.False(t, (&models.Payment{Status: models.PaymentStatusApproved, DueDate: past}).IsOverdue())
	})

	t.Run("HasReceipt", func(t *testing.T) {
		filename := "comprovante.pdf"
		assert.True(t, (&models.Payment{ReceiptFilename: &filename}).HasReceipt())
		assert.False(t, (&models.Payment{}).HasReceipt())
	})
}

func TestCompanyPredicates(t *testing.T) {
	t.Run("IsPending", func(t *testing.T) {
		assert.True(t, (&models.PartnerCompany{Status: models.CompanyStatusPending}).IsPending())
		assert.False(t, (&models.PartnerCompany{Status: models.CompanyStatusApproved}).IsPending())
	})

	t.Run("IsFinal", func(t *testing.T) {
		assert.False(t, (&models.PartnerCompany{Status: models.CompanyStatusPending}).IsFinal())
		assert.True(t, (&models.PartnerCompany{Status: models.CompanyStatusApproved}).IsFinal())
		assert.True(t, (&models.PartnerCompany{Status: models.CompanyStatusRejected}).IsFinal())
	})
}

func TestAuditLogPredicates(t *testing.T) {
	t.Run("IsSecurityEvent", func(t *testing.T) {
		assert.True(t, (&models.AuditLog{Action: models.AuditActionLoginFailed}).IsSecurityEvent())
		assert.True(t, (&models.AuditLog{Action: models.AuditActionAccountLocked}).IsSecurityEvent())
		assert.False(t, (&models.AuditLog{Action: models.AuditActionLoginSuccess}).IsSecurityEvent())
		assert.False(t, (&models.AuditLog{Action: models.AuditActionPaymentApproved}).IsSecurityEvent())
	})
}

func TestModelPersistence(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("UUIDAssignedOnCreate", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, member.UUID)

			payment, err := fixtures.CreateTestPayment(member.ID, models.PaymentTypeDonation, 5000)
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, payment.UUID)

			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, company.UUID)
		})

		t.Run("PendingUniquenessEnforcedByDatabase", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			_, err = fixtures.CreateTestPayment(member.ID, models.PaymentTypeDonation, 5000)
			require.NoError(t, err)

			// Second pending payment of the same type hits the partial unique index
			_, err = fixtures.CreateTestPayment(member.ID, models.PaymentTypeDonation, 7500)
			require.Error(t, err)
		})

		t.Run("DuplicateNationalIDEnforcedByDatabase", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			clone := &models.Member{
				NationalID:     member.NationalID,
				FirstName:      "Outra",
				LastName:       "Pessoa",
				Email:          "outra." + member.NationalID + "@example.com",
				PasswordHash:   member.PasswordHash,
				Role:           models.MemberRoleMember,
				IsActive:       utils.ToPtr(false),
				MemberSince:    utils.UTCNow(),
				NextPaymentDue: utils.UTCNow().Add(utils.RegistrationDuePlaceholder),
			}
			err = testDB.DB.Create(clone).Error
			require.Error(t, err)
		})

		t.Run("AuditEntryPersisted", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)

			entry, err := fixtures.CreateTestAuditLog(&member.ID, models.AuditActionLoginSuccess, true)
			require.NoError(t, err)

			var reloaded models.AuditLog
			require.NoError(t, testDB.DB.First(&reloaded, entry.ID).Error)
			assert.Equal(t, models.AuditActionLoginSuccess, reloaded.Action)
			require.NotNil(t, reloaded.MemberID)
			assert.Equal(t, member.ID, *reloaded.MemberID)
			assert.True(t, reloaded.Success)
		})

		return nil
	})
	require.NoError(t, err)
}
