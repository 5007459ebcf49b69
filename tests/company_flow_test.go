package tests

import (
	"context"
	"testing"

	"github.com/associacao-viver/membership-api/app/dto"
	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	testingutil "github.com/associacao-viver/membership-api/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCompanyFlow(testDB *testingutil.TestDB) businessflow.CompanyFlow {
	return businessflow.NewCompanyFlow(
		repository.NewPartnerCompanyRepository(testDB.DB),
		repository.NewMemberRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testDB.DB,
	)
}

func companyRequest(registration string) *dto.RegisterCompanyRequest {
	return &dto.RegisterCompanyRequest{
		Name:               "Mercado Sao Jorge Ltda",
		RegistrationNumber: registration,
		ContactName:        "Joana Ribeiro",
		ContactEmail:       "contato." + registration + "@example.com.br",
	}
}

func TestCompanyRegistration(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		companyFlow := buildCompanyFlow(testDB)
		ctx := context.Background()

		t.Run("RegisterCompany", func(t *testing.T) {
			registration := testingutil.RandomRegistrationNumber()
			result, err := companyFlow.Register(ctx, companyRequest(registration), testMetadata())
			require.NoError(t, err)

			assert.Equal(t, registration, result.Company.RegistrationNumber)
			assert.Equal(t, string(models.CompanyStatusPending), result.Company.Status)
			assert.NotEmpty(t, result.Company.UUID)
			assert.Nil(t, result.Company.ReviewedBy)
		})

		t.Run("PunctuatedRegistrationNormalized", func(t *testing.T) {
			registration := testingutil.RandomRegistrationNumber()
			// 12.345.678/0001-95 style input reduces to the stored digits
			punctuated := registration[:2] + "." + registration[2:5] + "." + registration[5:8] + "/" + registration[8:12] + "-" + registration[12:]

			result, err := companyFlow.Register(ctx, companyRequest(punctuated), testMetadata())
			require.NoError(t, err)
			assert.Equal(t, registration, result.Company.RegistrationNumber)
		})

		t.Run("MalformedRegistrationRejected", func(t *testing.T) {
			_, err := companyFlow.Register(ctx, companyRequest("1234"), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidRegistrationNumber(err))
		})

		t.Run("DuplicatePendingRejected", func(t *testing.T) {
			registration := testingutil.RandomRegistrationNumber()
			_, err := companyFlow.Register(ctx, companyRequest(registration), testMetadata())
			require.NoError(t, err)

			_, err = companyFlow.Register(ctx, companyRequest(registration), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCompanyAlreadyRegistered(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCompanyReview(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		companyFlow := buildCompanyFlow(testDB)
		ctx := context.Background()

		admin, err := fixtures.CreateTestAdmin()
		require.NoError(t, err)

		t.Run("ApproveCompany", func(t *testing.T) {
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			result, err := companyFlow.Approve(ctx, company.UUID.String(), admin.ID, testMetadata())
			require.NoError(t, err)

			assert.Equal(t, string(models.CompanyStatusApproved), result.Company.Status)
			require.NotNil(t, result.Company.ReviewedBy)
			assert.Equal(t, admin.ID, *result.Company.ReviewedBy)
			assert.NotNil(t, result.Company.ReviewedAt)
		})

		t.Run("ApproveByNonAdminForbidden", func(t *testing.T) {
			member, err := fixtures.CreateTestMember()
			require.NoError(t, err)
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			_, err = companyFlow.Approve(ctx, company.UUID.String(), member.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsForbidden(err))
		})

		t.Run("RejectWithoutReason", func(t *testing.T) {
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			result, err := companyFlow.Reject(ctx, company.UUID.String(), admin.ID, "  ", testMetadata())
			require.NoError(t, err)

			assert.Equal(t, string(models.CompanyStatusRejected), result.Company.Status)
			assert.Nil(t, result.Company.RejectedReason)
			require.NotNil(t, result.Company.ReviewedBy)
			assert.Equal(t, admin.ID, *result.Company.ReviewedBy)

			var reloaded models.PartnerCompany
			require.NoError(t, testDB.DB.First(&reloaded, company.ID).Error)
			assert.Nil(t, reloaded.RejectedReason)
		})

		t.Run("RejectCompany", func(t *testing.T) {
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			result, err := companyFlow.Reject(ctx, company.UUID.String(), admin.ID, "Documentacao incompleta", testMetadata())
			require.NoError(t, err)

			assert.Equal(t, string(models.CompanyStatusRejected), result.Company.Status)
			require.NotNil(t, result.Company.RejectedReason)
			assert.Equal(t, "Documentacao incompleta", *result.Company.RejectedReason)
		})

		t.Run("DecidedCompanyCannotBeDecidedAgain", func(t *testing.T) {
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			_, err = companyFlow.Approve(ctx, company.UUID.String(), admin.ID, testMetadata())
			require.NoError(t, err)

			_, err = companyFlow.Reject(ctx, company.UUID.String(), admin.ID, "Mudou de ideia", testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTransition(err))
		})

		t.Run("RejectedCompanyMayReapply", func(t *testing.T) {
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			_, err = companyFlow.Reject(ctx, company.UUID.String(), admin.ID, "Documentacao incompleta", testMetadata())
			require.NoError(t, err)

			// A fresh application with the same registration number starts over
			result, err := companyFlow.Register(ctx, companyRequest(company.RegistrationNumber), testMetadata())
			require.NoError(t, err)
			assert.Equal(t, string(models.CompanyStatusPending), result.Company.Status)
			assert.NotEqual(t, company.UUID.String(), result.Company.UUID)
		})

		t.Run("ApprovedCompanyBlocksReapplication", func(t *testing.T) {
			company, err := fixtures.CreateTestCompany()
			require.NoError(t, err)

			_, err = companyFlow.Approve(ctx, company.UUID.String(), admin.ID, testMetadata())
			require.NoError(t, err)

			_, err = companyFlow.Register(ctx, companyRequest(company.RegistrationNumber), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCompanyAlreadyRegistered(err))
		})

		t.Run("UnknownCompanyNotFound", func(t *testing.T) {
			_, err := companyFlow.Approve(ctx, "00000000-0000-0000-0000-000000000000", admin.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCompanyNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCompanyListing(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		companyFlow := buildCompanyFlow(testDB)
		ctx := context.Background()

		admin, err := fixtures.CreateTestAdmin()
		require.NoError(t, err)
		member, err := fixtures.CreateTestMember()
		require.NoError(t, err)

		first, err := fixtures.CreateTestCompany()
		require.NoError(t, err)
		_, err = fixtures.CreateTestCompany()
		require.NoError(t, err)

		t.Run("PendingQueueVisibleToAdmin", func(t *testing.T) {
			result, err := companyFlow.ListPending(ctx, admin.ID, 50, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(2), result.Total)
			assert.Len(t, result.Companies, 2)
		})

		t.Run("PendingQueueHiddenFromMembers", func(t *testing.T) {
			_, err := companyFlow.ListPending(ctx, member.ID, 50, 0)
			require.Error(t, err)
			assert.True(t, businessflow.IsForbidden(err))
		})

		t.Run("DecidedCompaniesLeaveTheQueue", func(t *testing.T) {
			_, err := companyFlow.Approve(ctx, first.UUID.String(), admin.ID, testMetadata())
			require.NoError(t, err)

			result, err := companyFlow.ListPending(ctx, admin.ID, 50, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(1), result.Total)
		})

		return nil
	})
	require.NoError(t, err)
}
