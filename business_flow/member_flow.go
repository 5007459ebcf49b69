package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/services"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	"github.com/associacao-viver/membership-api/utils"
	"gorm.io/gorm"
)

// MemberFlow handles member registration, profile access and admin-driven
// status changes
type MemberFlow interface {
	Register(ctx context.Context, request *dto.RegisterMemberRequest, metadata *ClientMetadata) (*dto.RegisterMemberResponse, error)
	GetProfile(ctx context.Context, memberID uint) (*dto.MemberDTO, error)
	ToggleStatus(ctx context.Context, memberUUID string, actorID uint, metadata *ClientMetadata) (*dto.ToggleMemberStatusResponse, error)
}

// MemberFlowImpl implements the member business flow
type MemberFlowImpl struct {
	memberRepo     repository.MemberRepository
	auditRepo      repository.AuditLogRepository
	passwordHasher services.PasswordHasher
	db             *gorm.DB
}

// NewMemberFlow creates a new member flow instance
func NewMemberFlow(
	memberRepo repository.MemberRepository,
	auditRepo repository.AuditLogRepository,
	passwordHasher services.PasswordHasher,
	db *gorm.DB,
) MemberFlow {
	return &MemberFlowImpl{
		memberRepo:     memberRepo,
		auditRepo:      auditRepo,
		passwordHasher: passwordHasher,
		db:             db,
	}
}

// Register creates a new inactive member. Activation happens through the
// first approved payment.
func (mf *MemberFlowImpl) Register(ctx context.Context, request *dto.RegisterMemberRequest, metadata *ClientMetadata) (*dto.RegisterMemberResponse, error) {
	nationalID := utils.NormalizeDigits(request.NationalID)
	if len(nationalID) != utils.CPFLength {
		return nil, NewBusinessError("REGISTRATION_VALIDATION_FAILED", "Registration validation failed", ErrInvalidNationalID)
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))

	var member *models.Member

	err := repository.WithTransaction(ctx, mf.db, func(ctx context.Context) error {
		existing, err := mf.memberRepo.ByNationalID(ctx, nationalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrNationalIDAlreadyExists
		}

		existing, err = mf.memberRepo.ByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}

		passwordHash, err := mf.passwordHasher.Hash(request.Password)
		if err != nil {
			return err
		}

		now := utils.UTCNow()
		member = &models.Member{
			NationalID:     nationalID,
			FirstName:      strings.TrimSpace(request.FirstName),
			LastName:       strings.TrimSpace(request.LastName),
			Email:          email,
			Phone:          request.Phone,
			PasswordHash:   passwordHash,
			Role:           models.MemberRoleMember,
			IsActive:       utils.ToPtr(false),
			MemberSince:    now,
			NextPaymentDue: now.Add(utils.RegistrationDuePlaceholder),
		}

		return mf.memberRepo.Save(ctx, member)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Member registration failed: %s", err.Error())
		_ = logAudit(ctx, mf.auditRepo, nil, models.AuditActionMemberRegistered, errMsg, false, metadata)
		return nil, NewBusinessError("REGISTRATION_FAILED", "Member registration failed", err)
	}

	msg := fmt.Sprintf("Member registered successfully: %d", member.ID)
	_ = logAudit(ctx, mf.auditRepo, member, models.AuditActionMemberRegistered, msg, true, metadata)

	return &dto.RegisterMemberResponse{Member: ToMemberDTO(*member)}, nil
}

// GetProfile returns the member's own account view
func (mf *MemberFlowImpl) GetProfile(ctx context.Context, memberID uint) (*dto.MemberDTO, error) {
	member, err := mf.memberRepo.ByID(ctx, memberID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if member == nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", ErrMemberNotFound)
	}

	profile := ToMemberDTO(*member)
	return &profile, nil
}

// ToggleStatus flips a member between active and inactive. Admin only.
// Activating renews the membership period from the moment of activation.
func (mf *MemberFlowImpl) ToggleStatus(ctx context.Context, memberUUID string, actorID uint, metadata *ClientMetadata) (*dto.ToggleMemberStatusResponse, error) {
	var member *models.Member
	var activated bool

	err := repository.WithTransaction(ctx, mf.db, func(ctx context.Context) error {
		actor, err := mf.memberRepo.ByID(ctx, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.IsAdmin() {
			return ErrForbidden
		}

		member, err = mf.memberRepo.ByUUID(ctx, memberUUID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		if utils.IsTrue(member.IsActive) {
			deactivateMember(member)
			activated = false
		} else {
			activateMember(member, utils.UTCNow())
			activated = true
		}

		return mf.memberRepo.Update(ctx, member)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Member status toggle failed: %s", err.Error())
		_ = logAudit(ctx, mf.auditRepo, member, models.AuditActionMemberDeactivated, errMsg, false, metadata)
		return nil, NewBusinessError("MEMBER_STATUS_TOGGLE_FAILED", "Member status toggle failed", err)
	}

	action := models.AuditActionMemberDeactivated
	if activated {
		action = models.AuditActionMemberActivated
	}
	msg := fmt.Sprintf("Member status toggled by admin %d: member %d active=%t", actorID, member.ID, activated)
	_ = logAudit(ctx, mf.auditRepo, member, action, msg, true, metadata)

	return &dto.ToggleMemberStatusResponse{Member: ToMemberDTO(*member)}, nil
}

// activateMember marks the member active and renews the membership period
// one calendar month from the given instant
func activateMember(member *models.Member, now time.Time) {
	member.IsActive = utils.ToPtr(true)
	member.LastPayment = utils.ToPtr(now)
	member.NextPaymentDue = utils.AddMonths(now, utils.MembershipRenewalMonths)
}

// deactivateMember marks the member inactive; payment history is untouched
func deactivateMember(member *models.Member) {
	member.IsActive = utils.ToPtr(false)
}

// recordDonation accumulates an approved amount into the member's total.
// The total only grows; negative amounts are refused.
func recordDonation(member *models.Member, amountCents int64) error {
	if amountCents < 0 {
		return ErrInvalidAmount
	}
	member.TotalDonatedCents += amountCents
	return nil
}
