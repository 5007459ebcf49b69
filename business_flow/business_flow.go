// Package businessflow contains the core business logic and use cases for membership workflows
package businessflow

import (
	"context"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	"github.com/associacao-viver/membership-api/utils"
)

type flowContextKey string

// RequestIDKey carries the request correlation ID into audit records
const RequestIDKey flowContextKey = "request_id"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// logAudit persists an audit entry for a flow operation. Audit failures are
// swallowed by callers so they never mask the business outcome.
func logAudit(ctx context.Context, auditRepo repository.AuditLogRepository, member *models.Member, action, description string, success bool, metadata *ClientMetadata) error {
	var memberID *uint
	if member != nil {
		memberID = &member.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		MemberID:    memberID,
		Action:      action,
		Description: &description,
		Success:     success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}

// ToMemberDTO converts a member entity to its API representation
func ToMemberDTO(member models.Member) dto.MemberDTO {
	return dto.MemberDTO{
		ID:                member.ID,
		UUID:              member.UUID.String(),
		NationalID:        member.NationalID,
		FirstName:         member.FirstName,
		LastName:          member.LastName,
		Email:             member.Email,
		Phone:             member.Phone,
		Role:              string(member.Role),
		IsActive:          utils.IsTrue(member.IsActive),
		MemberSince:       member.MemberSince,
		LastPayment:       member.LastPayment,
		NextPaymentDue:    member.NextPaymentDue,
		TotalDonatedCents: member.TotalDonatedCents,
		PaymentOverdue:    member.IsPaymentOverdue(),
	}
}

// ToPaymentDTO converts a payment entity to its API representation
func ToPaymentDTO(payment models.Payment) dto.PaymentDTO {
	return dto.PaymentDTO{
		ID:              payment.ID,
		UUID:            payment.UUID.String(),
		MemberID:        payment.MemberID,
		AmountCents:     payment.AmountCents,
		Type:            string(payment.Type),
		Method:          string(payment.Method),
		Status:          string(payment.Status),
		ReferenceMonth:  payment.ReferenceMonth,
		DueDate:         payment.DueDate,
		PaidAt:          payment.PaidAt,
		ReceiptFilename: payment.ReceiptFilename,
		Notes:           payment.Notes,
		ApprovedBy:      payment.ApprovedBy,
		ApprovedAt:      payment.ApprovedAt,
		RejectedReason:  payment.RejectedReason,
		ExpiresAt:       payment.ExpiresAt,
		CreatedAt:       payment.CreatedAt,
	}
}

// ToCompanyDTO converts a partner company entity to its API representation
func ToCompanyDTO(company models.PartnerCompany) dto.CompanyDTO {
	return dto.CompanyDTO{
		ID:                 company.ID,
		UUID:               company.UUID.String(),
		Name:               company.Name,
		RegistrationNumber: company.RegistrationNumber,
		ContactName:        company.ContactName,
		ContactEmail:       company.ContactEmail,
		ContactPhone:       company.ContactPhone,
		Status:             string(company.Status),
		ReviewedBy:         company.ReviewedBy,
		ReviewedAt:         company.ReviewedAt,
		RejectedReason:     company.RejectedReason,
		CreatedAt:          company.CreatedAt,
	}
}
