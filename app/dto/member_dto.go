package dto

import "time"

// RegisterMemberRequest represents a new member registration
type RegisterMemberRequest struct {
	NationalID string  `json:"national_id" validate:"required,cpf"`
	FirstName  string  `json:"first_name" validate:"required,min=2,max=100"`
	LastName   string  `json:"last_name" validate:"required,min=2,max=100"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Password   string  `json:"password" validate:"required,min=8,max=128"`
}

// MemberDTO is the serializable view of a member account
type MemberDTO struct {
	ID                uint       `json:"id"`
	UUID              string     `json:"uuid"`
	NationalID        string     `json:"national_id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	Phone             *string    `json:"phone,omitempty"`
	Role              string     `json:"role"`
	IsActive          bool       `json:"is_active"`
	MemberSince       time.Time  `json:"member_since"`
	LastPayment       *time.Time `json:"last_payment,omitempty"`
	NextPaymentDue    time.Time  `json:"next_payment_due"`
	TotalDonatedCents int64      `json:"total_donated_cents"`
	PaymentOverdue    bool       `json:"payment_overdue"`
}

// RegisterMemberResponse is returned after successful registration
type RegisterMemberResponse struct {
	Member MemberDTO `json:"member"`
}

// ToggleMemberStatusResponse carries the member after an admin status flip
type ToggleMemberStatusResponse struct {
	Member MemberDTO `json:"member"`
}
