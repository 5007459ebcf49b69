// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/middleware"
	"github.com/associacao-viver/membership-api/app/services"
	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	RefreshToken(c fiber.Ctx) error
	Captcha(c fiber.Ctx) error
	Health(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	loginFlow      businessflow.LoginFlow
	captchaService services.CaptchaService
	validator      *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(loginFlow businessflow.LoginFlow, captchaService services.CaptchaService) *AuthHandler {
	return &AuthHandler{
		loginFlow:      loginFlow,
		captchaService: captchaService,
		validator:      newValidator(),
	}
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Login authenticates a member with national ID and password
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.loginFlow.Login(createRequestContext(c), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsAccountLocked(err) {
			middleware.CountLoginAttempt("locked")
			return h.ErrorResponse(c, fiber.StatusLocked, "Account is temporarily locked", "ACCOUNT_LOCKED", nil)
		}
		if businessflow.IsCaptchaRequired(err) {
			return h.ErrorResponse(c, fiber.StatusPreconditionRequired, "Captcha verification is required", "CAPTCHA_REQUIRED", nil)
		}
		if businessflow.IsCaptchaInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Captcha verification failed", "CAPTCHA_INVALID", nil)
		}
		if businessflow.IsMemberNotFound(err) || businessflow.IsIncorrectPassword(err) {
			// Same answer for both so the endpoint doesn't leak which CPFs exist
			middleware.CountLoginAttempt("failed")
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsInvalidNationalID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "CPF must have 11 digits", "INVALID_NATIONAL_ID", nil)
		}

		log.Println("Login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	middleware.CountLoginAttempt("success")
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// RefreshToken exchanges a refresh token for a new pair
func (h *AuthHandler) RefreshToken(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.loginFlow.RefreshToken(createRequestContext(c), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidToken(err) || businessflow.IsTokenRevoked(err) || businessflow.IsMemberNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "INVALID_REFRESH_TOKEN", nil)
		}

		log.Println("Token refresh failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Token refresh failed", "TOKEN_REFRESH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed", result)
}

// Captcha issues a rotate-captcha challenge
func (h *AuthHandler) Captcha(c fiber.Ctx) error {
	challenge, err := h.captchaService.GenerateRotate(createRequestContext(c))
	if err != nil {
		log.Println("Captcha generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate captcha", "CAPTCHA_GENERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated", dto.CaptchaChallengeResponse{
		CaptchaID:   challenge.ID,
		ImageBase64: challenge.MasterImageBase64,
		ThumbBase64: challenge.ThumbImageBase64,
	})
}

// Health handles health check requests
func (h *AuthHandler) Health(c fiber.Ctx) error {
	return h.SuccessResponse(c, fiber.StatusOK, "Service is healthy", fiber.Map{
		"status": "ok",
	})
}
