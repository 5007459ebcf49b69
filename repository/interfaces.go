// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/associacao-viver/membership-api/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// MemberRepository defines operations for members
type MemberRepository interface {
	Repository[models.Member, models.MemberFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Member, error)
	// ByIDForUpdate loads a member under a row lock; only meaningful inside
	// a transaction.
	ByIDForUpdate(ctx context.Context, id uint) (*models.Member, error)
	ByNationalID(ctx context.Context, nationalID string) (*models.Member, error)
	ByEmail(ctx context.Context, email string) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	UpdateLoginAttempts(ctx context.Context, memberID uint, attempts int, lockUntil *time.Time) error
	ListOverdue(ctx context.Context, asOf time.Time, limit, offset int) ([]*models.Member, error)
}

// PaymentRepository defines operations for payments
type PaymentRepository interface {
	Repository[models.Payment, models.PaymentFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Payment, error)
	ByMemberID(ctx context.Context, memberID uint, limit, offset int) ([]*models.Payment, error)
	ListPendingForReview(ctx context.Context, asOf time.Time, limit, offset int) ([]*models.Payment, error)
	ExistsPendingByMemberAndType(ctx context.Context, memberID uint, paymentType models.PaymentType) (bool, error)
	Update(ctx context.Context, payment *models.Payment) error
	// TransitionFromPending atomically moves a pending payment into a new
	// status, applying the given column updates. It reports whether the row
	// was still pending (and therefore transitioned).
	TransitionFromPending(ctx context.Context, paymentID uint, newStatus models.PaymentStatus, updates map[string]any) (bool, error)
}

// PartnerCompanyRepository defines operations for partner company registrations
type PartnerCompanyRepository interface {
	Repository[models.PartnerCompany, models.PartnerCompanyFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PartnerCompany, error)
	ActiveByRegistrationNumber(ctx context.Context, registrationNumber string) (*models.PartnerCompany, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.PartnerCompany, error)
	TransitionFromPending(ctx context.Context, companyID uint, newStatus models.CompanyStatus, updates map[string]any) (bool, error)
}

// AuditLogRepository defines operations for audit log entries
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ByMemberID(ctx context.Context, memberID uint, limit, offset int) ([]*models.AuditLog, error)
	ByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
