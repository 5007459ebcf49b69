package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyStatus represents the approval state of a partner company registration
type CompanyStatus string

const (
	CompanyStatusPending  CompanyStatus = "pending"
	CompanyStatusApproved CompanyStatus = "approved"
	CompanyStatusRejected CompanyStatus = "rejected"
)

// PartnerCompany represents a company applying to partner with the association.
// A rejected registration is terminal; resubmission creates a fresh row.
type PartnerCompany struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`

	Name string `gorm:"size:255;not null" json:"name"`

	// RegistrationNumber is the CNPJ, stored digits-only. Unique across
	// non-rejected rows (partial unique index in migrations).
	RegistrationNumber string `gorm:"size:14;not null;index" json:"registration_number"`

	ContactName  string  `gorm:"size:100;not null" json:"contact_name"`
	ContactEmail string  `gorm:"size:255;not null" json:"contact_email"`
	ContactPhone *string `gorm:"size:20" json:"contact_phone,omitempty"`

	Status CompanyStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_partner_companies_status" json:"status"`

	// Review outcome
	ReviewedBy     *uint      `gorm:"index" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	RejectedReason *string    `gorm:"size:500" json:"rejected_reason,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PartnerCompany) TableName() string {
	return "partner_companies"
}

func (c *PartnerCompany) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

func (c *PartnerCompany) IsPending() bool {
	return c.Status == CompanyStatusPending
}

// IsFinal reports whether the registration reached a terminal state
func (c *PartnerCompany) IsFinal() bool {
	return c.Status == CompanyStatusApproved || c.Status == CompanyStatusRejected
}

// PartnerCompanyFilter represents filter criteria for partner company queries
type PartnerCompanyFilter struct {
	ID                 *uint          `json:"id,omitempty"`
	UUID               *uuid.UUID     `json:"uuid,omitempty"`
	RegistrationNumber *string        `json:"registration_number,omitempty"`
	Status             *CompanyStatus `json:"status,omitempty"`
	ReviewedBy         *uint          `json:"reviewed_by,omitempty"`
	CreatedAfter       *time.Time     `json:"created_after,omitempty"`
	CreatedBefore      *time.Time     `json:"created_before,omitempty"`
}
