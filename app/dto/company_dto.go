package dto

import "time"

// RegisterCompanyRequest represents a partner company application
type RegisterCompanyRequest struct {
	Name               string  `json:"name" validate:"required,min=2,max=255"`
	RegistrationNumber string  `json:"registration_number" validate:"required,cnpj"`
	ContactName        string  `json:"contact_name" validate:"required,min=2,max=100"`
	ContactEmail       string  `json:"contact_email" validate:"required,email,max=255"`
	ContactPhone       *string `json:"contact_phone,omitempty" validate:"omitempty,min=8,max=20"`
}

// CompanyDTO is the serializable view of a partner company registration
type CompanyDTO struct {
	ID                 uint       `json:"id"`
	UUID               string     `json:"uuid"`
	Name               string     `json:"name"`
	RegistrationNumber string     `json:"registration_number"`
	ContactName        string     `json:"contact_name"`
	ContactEmail       string     `json:"contact_email"`
	ContactPhone       *string    `json:"contact_phone,omitempty"`
	Status             string     `json:"status"`
	ReviewedBy         *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	RejectedReason     *string    `json:"rejected_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// RegisterCompanyResponse is returned after a company applies
type RegisterCompanyResponse struct {
	Company CompanyDTO `json:"company"`
}

// RejectCompanyRequest carries the optional rejection reason
type RejectCompanyRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ReviewCompanyResponse is returned after an approve/reject decision
type ReviewCompanyResponse struct {
	Company CompanyDTO `json:"company"`
}

// ListCompaniesResponse carries a page of partner companies
type ListCompaniesResponse struct {
	Companies []CompanyDTO `json:"companies"`
	Total     int64        `json:"total"`
}
