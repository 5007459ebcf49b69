package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/services"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	"github.com/associacao-viver/membership-api/utils"
	"gorm.io/gorm"
)

// LoginFlow handles member authentication and token refresh
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	memberRepo     repository.MemberRepository
	auditRepo      repository.AuditLogRepository
	tokenService   services.TokenService
	captchaService services.CaptchaService
	passwordHasher services.PasswordHasher
	guard          CredentialGuard
	db             *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	memberRepo repository.MemberRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaService services.CaptchaService,
	passwordHasher services.PasswordHasher,
	guard CredentialGuard,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		memberRepo:     memberRepo,
		auditRepo:      auditRepo,
		tokenService:   tokenService,
		captchaService: captchaService,
		passwordHasher: passwordHasher,
		guard:          guard,
		db:             db,
	}
}

// Login authenticates a member with national ID and password. Repeated
// failures require a captcha and eventually lock the account; an inactive
// membership does not block login, only the lock does.
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	nationalID := utils.NormalizeDigits(request.NationalID)
	if len(nationalID) != utils.CPFLength {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", ErrInvalidNationalID)
	}

	member, err := lf.memberRepo.ByNationalID(ctx, nationalID)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if member == nil {
		errMsg := "Login failed: member not found"
		_ = logAudit(ctx, lf.auditRepo, nil, models.AuditActionLoginFailed, errMsg, false, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrMemberNotFound)
	}

	now := utils.UTCNow()

	if lf.guard.IsLocked(member, now) {
		errMsg := fmt.Sprintf("Login refused, account locked until %s", member.LockUntil.Format("2006-01-02 15:04:05"))
		_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionLoginFailed, errMsg, false, metadata)
		return nil, NewBusinessError("ACCOUNT_LOCKED", "Account is temporarily locked", ErrAccountLocked)
	}

	if lf.guard.RequiresCaptcha(member) {
		if request.CaptchaID == nil || request.CaptchaAngle == nil {
			return nil, NewBusinessError("CAPTCHA_REQUIRED", "Captcha verification is required", ErrCaptchaRequired)
		}
		if !lf.captchaService.VerifyRotate(ctx, *request.CaptchaID, *request.CaptchaAngle) {
			errMsg := "Login failed: captcha verification failed"
			_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionLoginFailed, errMsg, false, metadata)
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha verification failed", ErrCaptchaInvalid)
		}
	}

	if err := lf.passwordHasher.Compare(member.PasswordHash, request.Password); err != nil {
		return nil, lf.handleFailedPassword(ctx, member, now, metadata)
	}

	resp, err := lf.WithLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		lf.guard.RecordSuccess(member)
		if err := lf.memberRepo.UpdateLoginAttempts(ctx, member.ID, member.LoginAttempts, member.LockUntil); err != nil {
			return nil, err
		}

		accessToken, refreshToken, err := lf.tokenService.GenerateTokens(member.ID, string(member.Role))
		if err != nil {
			return nil, err
		}

		return &dto.LoginResponse{
			Member: ToMemberDTO(*member),
			Tokens: dto.TokenPairDTO{
				AccessToken:           accessToken,
				RefreshToken:          refreshToken,
				AccessTokenExpiresAt:  now.Add(lf.tokenService.AccessTokenTTL()),
				RefreshTokenExpiresAt: now.Add(lf.tokenService.RefreshTokenTTL()),
			},
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionLoginFailed, errMsg, false, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("Member logged in successfully: %d", member.ID)
	_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionLoginSuccess, msg, true, metadata)

	return resp, nil
}

// handleFailedPassword counts the failure, persists the counters and locks
// the account when the limit is reached
func (lf *LoginFlowImpl) handleFailedPassword(ctx context.Context, member *models.Member, now time.Time, metadata *ClientMetadata) error {
	locked := lf.guard.RecordFailure(member, now)

	if err := lf.memberRepo.UpdateLoginAttempts(ctx, member.ID, member.LoginAttempts, member.LockUntil); err != nil {
		return NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	errMsg := fmt.Sprintf("Login failed: incorrect password (attempt %d)", member.LoginAttempts)
	_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionLoginFailed, errMsg, false, metadata)

	if locked {
		lockMsg := fmt.Sprintf("Account locked after %d failed attempts", member.LoginAttempts)
		_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionAccountLocked, lockMsg, false, metadata)
		return NewBusinessError("ACCOUNT_LOCKED", "Account is temporarily locked", ErrAccountLocked)
	}

	return NewBusinessError("LOGIN_FAILED", "Login failed", ErrIncorrectPassword)
}

// RefreshToken rotates a refresh token into a fresh pair. The used refresh
// token is revoked so it cannot be replayed.
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error) {
	claims, err := lf.tokenService.ValidateToken(ctx, request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", ErrInvalidToken)
	}
	if claims.TokenType != "refresh" {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", ErrInvalidToken)
	}

	member, err := lf.memberRepo.ByID(ctx, claims.MemberID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}
	if member == nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", ErrMemberNotFound)
	}

	accessToken, refreshToken, err := lf.tokenService.RefreshToken(ctx, request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", ErrInvalidToken)
	}

	msg := fmt.Sprintf("Tokens refreshed for member: %d", member.ID)
	_ = logAudit(ctx, lf.auditRepo, member, models.AuditActionTokenRefreshed, msg, true, metadata)

	now := utils.UTCNow()
	return &dto.RefreshTokenResponse{
		Tokens: dto.TokenPairDTO{
			AccessToken:           accessToken,
			RefreshToken:          refreshToken,
			AccessTokenExpiresAt:  now.Add(lf.tokenService.AccessTokenTTL()),
			RefreshTokenExpiresAt: now.Add(lf.tokenService.RefreshTokenTTL()),
		},
	}, nil
}

func (lf *LoginFlowImpl) WithLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
