package models

import (
	"time"

	"github.com/associacao-viver/membership-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus represents the lifecycle state of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentType categorizes what a payment is for
type PaymentType string

const (
	PaymentTypeMonthlyFee   PaymentType = "monthly_fee"
	PaymentTypeDonation     PaymentType = "donation"
	PaymentTypeRegistration PaymentType = "registration"
)

// PaymentMethod records how the member says they paid. Metadata only, no
// gateway integration.
type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "pix"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
)

// Payment represents a member-submitted payment awaiting admin review
type Payment struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`

	MemberID uint   `gorm:"not null;index:idx_payments_member_id" json:"member_id"`
	Member   Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`

	// AmountCents is the payment amount in centavos. Always positive.
	AmountCents int64         `gorm:"not null" json:"amount_cents"`
	Type        PaymentType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Method      PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status      PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_status" json:"status"`

	// ReferenceMonth is the competence month for monthly fees (first day of month)
	ReferenceMonth *time.Time `json:"reference_month,omitempty"`

	// DueDate is when the payment falls due. A pending payment past it is
	// overdue; the review window (ExpiresAt) is anchored on it.
	DueDate time.Time  `gorm:"not null;index" json:"due_date"`
	PaidAt  *time.Time `json:"paid_at,omitempty"`

	// Receipt metadata; bytes live in ReceiptStorage keyed by ReceiptPath
	ReceiptPath     *string `gorm:"size:512" json:"-"`
	ReceiptFilename *string `gorm:"size:255" json:"receipt_filename,omitempty"`
	ReceiptMimetype *string `gorm:"size:100" json:"receipt_mimetype,omitempty"`
	ReceiptSize     *int64  `json:"receipt_size,omitempty"`

	Notes *string `gorm:"size:1000" json:"notes,omitempty"`

	// Review outcome
	ApprovedBy     *uint      `gorm:"index" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedReason *string    `gorm:"size:500" json:"rejected_reason,omitempty"`

	// ExpiresAt bounds how long a pending payment stays reviewable
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_payments_created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// IsPending reports whether the payment is still awaiting review
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsFinal reports whether the payment reached a terminal state
func (p *Payment) IsFinal() bool {
	switch p.Status {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsExpired reports whether a pending payment has passed its review window
func (p *Payment) IsExpired() bool {
	return p.Status == PaymentStatusPending && utils.IsExpiredPtr(p.ExpiresAt)
}

// IsOverdue reports whether the payment is still pending past its due date
func (p *Payment) IsOverdue() bool {
	return p.Status == PaymentStatusPending && utils.IsExpired(p.DueDate)
}

// HasReceipt reports whether receipt bytes are attached
func (p *Payment) HasReceipt() bool {
	return p.ReceiptPath != nil && *p.ReceiptPath != ""
}

// PaymentFilter represents filter criteria for payment queries
type PaymentFilter struct {
	ID             *uint          `json:"id,omitempty"`
	UUID           *uuid.UUID     `json:"uuid,omitempty"`
	MemberID       *uint          `json:"member_id,omitempty"`
	Status         *PaymentStatus `json:"status,omitempty"`
	Type           *PaymentType   `json:"type,omitempty"`
	Method         *PaymentMethod `json:"method,omitempty"`
	ApprovedBy     *uint          `json:"approved_by,omitempty"`
	MinAmountCents *int64         `json:"min_amount_cents,omitempty"`
	MaxAmountCents *int64         `json:"max_amount_cents,omitempty"`
	CreatedAfter   *time.Time     `json:"created_after,omitempty"`
	CreatedBefore  *time.Time     `json:"created_before,omitempty"`
	// NotExpiredAt excludes pending payments whose review window closed before
	// the given instant
	NotExpiredAt *time.Time `json:"not_expired_at,omitempty"`
}
