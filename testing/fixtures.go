package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext behind every fixture member's hash
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// RandomNationalID returns a random 11-digit CPF-shaped string
func RandomNationalID() string {
	return fmt.Sprintf("%011d", rand.Int63n(90000000000)+10000000000)
}

// RandomRegistrationNumber returns a random 14-digit CNPJ-shaped string
func RandomRegistrationNumber() string {
	return fmt.Sprintf("%014d", rand.Int63n(90000000000000)+10000000000000)
}

// CreateTestMember creates an inactive member with a known password
func (tf *TestFixtures) CreateTestMember() (*models.Member, error) {
	return tf.createMember(models.MemberRoleMember)
}

// CreateTestAdmin creates a member with the admin role
func (tf *TestFixtures) CreateTestAdmin() (*models.Member, error) {
	return tf.createMember(models.MemberRoleAdmin)
}

func (tf *TestFixtures) createMember(role models.MemberRole) (*models.Member, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	nationalID := RandomNationalID()
	member := &models.Member{
		NationalID:     nationalID,
		FirstName:      "Maria",
		LastName:       "Silva",
		Email:          fmt.Sprintf("maria.silva.%s@example.com", nationalID),
		PasswordHash:   string(hashedPassword),
		Role:           role,
		IsActive:       utils.ToPtr(false),
		MemberSince:    utils.UTCNow(),
		NextPaymentDue: utils.UTCNow().Add(utils.RegistrationDuePlaceholder),
	}

	if err := tf.DB.DB.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to create test member: %w", err)
	}

	return member, nil
}

// CreateTestPayment creates a pending payment for the given member
func (tf *TestFixtures) CreateTestPayment(memberID uint, paymentType models.PaymentType, amountCents int64) (*models.Payment, error) {
	dueDate := utils.UTCNow()
	payment := &models.Payment{
		MemberID:    memberID,
		AmountCents: amountCents,
		Type:        paymentType,
		Method:      models.PaymentMethodPix,
		Status:      models.PaymentStatusPending,
		DueDate:     dueDate,
		ExpiresAt:   utils.ToPtr(dueDate.Add(time.Duration(utils.PaymentExpiryDays) * 24 * time.Hour)),
	}

	if paymentType == models.PaymentTypeMonthlyFee {
		now := utils.UTCNow()
		ref := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		payment.ReferenceMonth = &ref
	}

	if err := tf.DB.DB.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test payment: %w", err)
	}

	return payment, nil
}

// CreateTestCompany creates a pending partner company application
func (tf *TestFixtures) CreateTestCompany() (*models.PartnerCompany, error) {
	registration := RandomRegistrationNumber()
	company := &models.PartnerCompany{
		Name:               "Padaria Boa Vista Ltda",
		RegistrationNumber: registration,
		ContactName:        "Carlos Pereira",
		ContactEmail:       fmt.Sprintf("contato.%s@example.com.br", registration),
		Status:             models.CompanyStatusPending,
	}

	if err := tf.DB.DB.Create(company).Error; err != nil {
		return nil, fmt.Errorf("failed to create test company: %w", err)
	}

	return company, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(memberID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		MemberID:    memberID,
		Action:      action,
		Description: &description,
		Success:     success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
