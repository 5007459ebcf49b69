package dto

import "time"

// CreatePaymentRequest represents a member-submitted payment for review
type CreatePaymentRequest struct {
	AmountCents    int64      `json:"amount_cents" validate:"required,gt=0"`
	Type           string     `json:"type" validate:"required,oneof=monthly_fee donation registration"`
	Method         string     `json:"method" validate:"required,oneof=pix bank_transfer cash card"`
	DueDate        time.Time  `json:"due_date" validate:"required"`
	ReferenceMonth *time.Time `json:"reference_month,omitempty"`
	Notes          *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// PaymentDTO is the serializable view of a payment record
type PaymentDTO struct {
	ID              uint       `json:"id"`
	UUID            string     `json:"uuid"`
	MemberID        uint       `json:"member_id"`
	AmountCents     int64      `json:"amount_cents"`
	Type            string     `json:"type"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	ReferenceMonth  *time.Time `json:"reference_month,omitempty"`
	DueDate         time.Time  `json:"due_date"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ReceiptFilename *string    `json:"receipt_filename,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	ApprovedBy      *uint      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedReason  *string    `json:"rejected_reason,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreatePaymentResponse is returned after a payment is submitted
type CreatePaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
}

// RejectPaymentRequest carries the mandatory rejection reason
type RejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ReviewPaymentResponse is returned after an approve/reject/cancel decision
type ReviewPaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
	// Member is present when the decision changed the member account
	Member *MemberDTO `json:"member,omitempty"`
}

// AttachReceiptResponse is returned after a receipt upload
type AttachReceiptResponse struct {
	Payment PaymentDTO `json:"payment"`
}

// ListPaymentsResponse carries a page of payments
type ListPaymentsResponse struct {
	Payments []PaymentDTO `json:"payments"`
	Total    int64        `json:"total"`
}
