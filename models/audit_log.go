package models

import (
	"time"

	"gorm.io/gorm"
)

// Audit actions recorded by the orchestration layer
const (
	AuditActionLoginSuccess      = "login_success"
	AuditActionLoginFailed       = "login_failed"
	AuditActionAccountLocked     = "account_locked"
	AuditActionTokenRefreshed    = "token_refreshed"
	AuditActionMemberRegistered  = "member_registered"
	AuditActionMemberActivated   = "member_activated"
	AuditActionMemberDeactivated = "member_deactivated"
	AuditActionPaymentCreated    = "payment_created"
	AuditActionPaymentApproved   = "payment_approved"
	AuditActionPaymentRejected   = "payment_rejected"
	AuditActionPaymentCancelled  = "payment_cancelled"
	AuditActionReceiptAttached   = "receipt_attached"
	AuditActionCompanyRegistered = "company_registered"
	AuditActionCompanyApproved   = "company_approved"
	AuditActionCompanyRejected   = "company_rejected"
	AuditActionPaymentsExported  = "payments_exported"
)

// AuditLog records who did what, when, and from where
type AuditLog struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// MemberID is the acting member when known; nil for anonymous actions
	// such as failed logins against unknown national IDs.
	MemberID *uint   `gorm:"index:idx_audit_log_member_id" json:"member_id,omitempty"`
	Member   *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`

	Action      string  `gorm:"size:50;not null;index:idx_audit_log_action" json:"action"`
	Description *string `gorm:"size:1000" json:"description,omitempty"`
	Success     bool    `gorm:"not null;default:false" json:"success"`

	// Request context
	IPAddress *string `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"size:500" json:"user_agent,omitempty"`
	RequestID *string `gorm:"size:64;index" json:"request_id,omitempty"`

	Metadata *string `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_audit_log_created_at" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// IsSecurityEvent reports whether the entry is part of the login-protection trail
func (a *AuditLog) IsSecurityEvent() bool {
	switch a.Action {
	case AuditActionLoginFailed, AuditActionAccountLocked:
		return true
	}
	return false
}

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint      `json:"id,omitempty"`
	MemberID      *uint      `json:"member_id,omitempty"`
	Action        *string    `json:"action,omitempty"`
	Success       *bool      `json:"success,omitempty"`
	RequestID     *string    `json:"request_id,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
