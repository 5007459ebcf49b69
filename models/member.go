// Package models contains domain entities and business models for the membership system
package models

import (
	"time"

	"github.com/associacao-viver/membership-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRole distinguishes ordinary members from administrators
type MemberRole string

const (
	MemberRoleMember MemberRole = "member"
	MemberRoleAdmin  MemberRole = "admin"
)

// Member represents a registered person tracked for membership status and donation history
type Member struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`

	// NationalID is the CPF, stored digits-only, used as the login identifier
	NationalID string `gorm:"size:11;not null;uniqueIndex:uk_members_national_id" json:"national_id"`

	FirstName string  `gorm:"size:100;not null" json:"first_name"`
	LastName  string  `gorm:"size:100;not null" json:"last_name"`
	Email     string  `gorm:"size:255;not null;uniqueIndex:uk_members_email" json:"email"`
	Phone     *string `gorm:"size:20" json:"phone,omitempty"`

	PasswordHash string     `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	Role         MemberRole `gorm:"type:varchar(20);not null;default:'member';index" json:"role"`

	// Membership status
	IsActive       *bool      `gorm:"default:false;index:idx_members_is_active" json:"is_active"`
	MemberSince    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"member_since"`
	LastPayment    *time.Time `json:"last_payment,omitempty"`
	NextPaymentDue time.Time  `gorm:"not null;index" json:"next_payment_due"`

	// TotalDonatedCents accumulates approved payment amounts in centavos.
	// It only increases, and only through payment approval.
	TotalDonatedCents int64 `gorm:"not null;default:0" json:"total_donated_cents"`

	// Login protection
	LoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_members_created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relations
	Payments []Payment `gorm:"foreignKey:MemberID" json:"payments,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// BeforeCreate ensures the UUID is set
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	return nil
}

func (m *Member) IsAdmin() bool {
	return m.Role == MemberRoleAdmin
}

// IsLocked reports whether the account is currently locked out of login
func (m *Member) IsLocked() bool {
	return m.IsLockedAt(utils.UTCNow())
}

// IsLockedAt reports whether the account is locked at the given instant
func (m *Member) IsLockedAt(now time.Time) bool {
	return m.LockUntil != nil && m.LockUntil.After(now)
}

// IsPaymentOverdue reports whether an active member has passed their due date
func (m *Member) IsPaymentOverdue() bool {
	return utils.IsTrue(m.IsActive) && utils.UTCNow().After(m.NextPaymentDue)
}

// MemberFilter represents filter criteria for member queries
type MemberFilter struct {
	ID            *uint       `json:"id,omitempty"`
	UUID          *uuid.UUID  `json:"uuid,omitempty"`
	NationalID    *string     `json:"national_id,omitempty"`
	Email         *string     `json:"email,omitempty"`
	Role          *MemberRole `json:"role,omitempty"`
	IsActive      *bool       `json:"is_active,omitempty"`
	DueBefore     *time.Time  `json:"due_before,omitempty"`
	CreatedAfter  *time.Time  `json:"created_after,omitempty"`
	CreatedBefore *time.Time  `json:"created_before,omitempty"`
}
