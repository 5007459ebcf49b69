package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	"github.com/associacao-viver/membership-api/utils"
	"gorm.io/gorm"
)

// CompanyFlow handles partner company applications and their review
type CompanyFlow interface {
	Register(ctx context.Context, request *dto.RegisterCompanyRequest, metadata *ClientMetadata) (*dto.RegisterCompanyResponse, error)
	Approve(ctx context.Context, companyUUID string, actorID uint, metadata *ClientMetadata) (*dto.ReviewCompanyResponse, error)
	Reject(ctx context.Context, companyUUID string, actorID uint, reason string, metadata *ClientMetadata) (*dto.ReviewCompanyResponse, error)
	ListPending(ctx context.Context, actorID uint, limit, offset int) (*dto.ListCompaniesResponse, error)
}

// CompanyFlowImpl implements the partner company business flow
type CompanyFlowImpl struct {
	companyRepo repository.PartnerCompanyRepository
	memberRepo  repository.MemberRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewCompanyFlow creates a new company flow instance
func NewCompanyFlow(
	companyRepo repository.PartnerCompanyRepository,
	memberRepo repository.MemberRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CompanyFlow {
	return &CompanyFlowImpl{
		companyRepo: companyRepo,
		memberRepo:  memberRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// Register files a partner company application. A CNPJ with an open or
// approved application cannot apply again; a rejected one can, through a
// fresh registration row.
func (cf *CompanyFlowImpl) Register(ctx context.Context, request *dto.RegisterCompanyRequest, metadata *ClientMetadata) (*dto.RegisterCompanyResponse, error) {
	registrationNumber := utils.NormalizeDigits(request.RegistrationNumber)
	if len(registrationNumber) != utils.CNPJLength {
		return nil, NewBusinessError("COMPANY_VALIDATION_FAILED", "Company validation failed", ErrInvalidRegistrationNumber)
	}

	var company *models.PartnerCompany

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		existing, err := cf.companyRepo.ActiveByRegistrationNumber(ctx, registrationNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrCompanyAlreadyRegistered
		}

		company = &models.PartnerCompany{
			Name:               strings.TrimSpace(request.Name),
			RegistrationNumber: registrationNumber,
			ContactName:        strings.TrimSpace(request.ContactName),
			ContactEmail:       strings.ToLower(strings.TrimSpace(request.ContactEmail)),
			ContactPhone:       request.ContactPhone,
			Status:             models.CompanyStatusPending,
		}

		return cf.companyRepo.Save(ctx, company)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Company registration failed: %s", err.Error())
		_ = logAudit(ctx, cf.auditRepo, nil, models.AuditActionCompanyRegistered, errMsg, false, metadata)
		return nil, NewBusinessError("COMPANY_REGISTRATION_FAILED", "Company registration failed", err)
	}

	msg := fmt.Sprintf("Company registered: %d (%s)", company.ID, company.Name)
	_ = logAudit(ctx, cf.auditRepo, nil, models.AuditActionCompanyRegistered, msg, true, metadata)

	return &dto.RegisterCompanyResponse{Company: ToCompanyDTO(*company)}, nil
}

// Approve accepts a pending application. Admin only.
func (cf *CompanyFlowImpl) Approve(ctx context.Context, companyUUID string, actorID uint, metadata *ClientMetadata) (*dto.ReviewCompanyResponse, error) {
	var actor *models.Member
	var company *models.PartnerCompany

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		var err error
		actor, err = cf.memberRepo.ByID(ctx, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.IsAdmin() {
			return ErrForbidden
		}

		company, err = cf.companyRepo.ByUUID(ctx, companyUUID)
		if err != nil {
			return err
		}
		if company == nil {
			return ErrCompanyNotFound
		}

		now := utils.UTCNow()
		ok, err := cf.companyRepo.TransitionFromPending(ctx, company.ID, models.CompanyStatusApproved, map[string]any{
			"reviewed_by": actorID,
			"reviewed_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		company.Status = models.CompanyStatusApproved
		company.ReviewedBy = &actorID
		company.ReviewedAt = &now
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Company approval failed: %s", err.Error())
		_ = logAudit(ctx, cf.auditRepo, actor, models.AuditActionCompanyApproved, errMsg, false, metadata)
		return nil, NewBusinessError("COMPANY_APPROVE_FAILED", "Company approval failed", err)
	}

	msg := fmt.Sprintf("Company approved by admin %d: %d (%s)", actorID, company.ID, company.Name)
	_ = logAudit(ctx, cf.auditRepo, actor, models.AuditActionCompanyApproved, msg, true, metadata)

	return &dto.ReviewCompanyResponse{Company: ToCompanyDTO(*company)}, nil
}

// Reject declines a pending application. Unlike payment rejection the reason
// is optional. Rejection is terminal for the row; the company may file a new
// application. Admin only.
func (cf *CompanyFlowImpl) Reject(ctx context.Context, companyUUID string, actorID uint, reason string, metadata *ClientMetadata) (*dto.ReviewCompanyResponse, error) {
	reason = strings.TrimSpace(reason)

	var actor *models.Member
	var company *models.PartnerCompany

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		var err error
		actor, err = cf.memberRepo.ByID(ctx, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.IsAdmin() {
			return ErrForbidden
		}

		company, err = cf.companyRepo.ByUUID(ctx, companyUUID)
		if err != nil {
			return err
		}
		if company == nil {
			return ErrCompanyNotFound
		}

		now := utils.UTCNow()
		updates := map[string]any{
			"reviewed_by": actorID,
			"reviewed_at": now,
		}
		if reason != "" {
			updates["rejected_reason"] = reason
		}
		ok, err := cf.companyRepo.TransitionFromPending(ctx, company.ID, models.CompanyStatusRejected, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		company.Status = models.CompanyStatusRejected
		company.ReviewedBy = &actorID
		company.ReviewedAt = &now
		if reason != "" {
			company.RejectedReason = &reason
		}
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Company rejection failed: %s", err.Error())
		_ = logAudit(ctx, cf.auditRepo, actor, models.AuditActionCompanyRejected, errMsg, false, metadata)
		return nil, NewBusinessError("COMPANY_REJECT_FAILED", "Company rejection failed", err)
	}

	msg := fmt.Sprintf("Company rejected by admin %d: %d", actorID, company.ID)
	if reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, reason)
	}
	_ = logAudit(ctx, cf.auditRepo, actor, models.AuditActionCompanyRejected, msg, true, metadata)

	return &dto.ReviewCompanyResponse{Company: ToCompanyDTO(*company)}, nil
}

// ListPending returns applications awaiting review. Admin only.
func (cf *CompanyFlowImpl) ListPending(ctx context.Context, actorID uint, limit, offset int) (*dto.ListCompaniesResponse, error) {
	actor, err := cf.memberRepo.ByID(ctx, actorID)
	if err != nil {
		return nil, NewBusinessError("COMPANY_LIST_FAILED", "Failed to list companies", err)
	}
	if actor == nil || !actor.IsAdmin() {
		return nil, NewBusinessError("FORBIDDEN", "Operation not allowed", ErrForbidden)
	}

	companies, err := cf.companyRepo.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, NewBusinessError("COMPANY_LIST_FAILED", "Failed to list companies", err)
	}

	total, err := cf.companyRepo.Count(ctx, models.PartnerCompanyFilter{
		Status: utils.ToPtr(models.CompanyStatusPending),
	})
	if err != nil {
		return nil, NewBusinessError("COMPANY_LIST_FAILED", "Failed to count companies", err)
	}

	dtos := make([]dto.CompanyDTO, 0, len(companies))
	for _, c := range companies {
		dtos = append(dtos, ToCompanyDTO(*c))
	}

	return &dto.ListCompaniesResponse{
		Companies: dtos,
		Total:     total,
	}, nil
}
