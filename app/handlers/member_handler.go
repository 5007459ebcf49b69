package handlers

import (
	"log"

	"github.com/associacao-viver/membership-api/app/dto"
	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MemberHandlerInterface defines the contract for member handlers
type MemberHandlerInterface interface {
	Register(c fiber.Ctx) error
	Me(c fiber.Ctx) error
	ToggleStatus(c fiber.Ctx) error
}

// MemberHandler handles member-related HTTP requests
type MemberHandler struct {
	memberFlow businessflow.MemberFlow
	validator  *validator.Validate
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberFlow businessflow.MemberFlow) *MemberHandler {
	return &MemberHandler{
		memberFlow: memberFlow,
		validator:  newValidator(),
	}
}

func (h *MemberHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MemberHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register creates a new member account
func (h *MemberHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterMemberRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.memberFlow.Register(createRequestContext(c), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsNationalIDAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "CPF already registered", "NATIONAL_ID_EXISTS", nil)
		}
		if businessflow.IsEmailAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already registered", "EMAIL_EXISTS", nil)
		}
		if businessflow.IsInvalidNationalID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "CPF must have 11 digits", "INVALID_NATIONAL_ID", nil)
		}

		log.Println("Member registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Member registration failed", "REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Member registered successfully", result)
}

// Me returns the authenticated member's profile
func (h *MemberHandler) Me(c fiber.Ctx) error {
	memberID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.memberFlow.GetProfile(createRequestContext(c), memberID)
	if err != nil {
		if businessflow.IsMemberNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Member not found", "MEMBER_NOT_FOUND", nil)
		}

		log.Println("Profile fetch failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch profile", "PROFILE_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile fetched", result)
}

// ToggleStatus flips a member between active and inactive (admin only)
func (h *MemberHandler) ToggleStatus(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	memberUUID := c.Params("uuid")
	if memberUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Member UUID is required", "INVALID_REQUEST", nil)
	}

	result, err := h.memberFlow.ToggleStatus(createRequestContext(c), memberUUID, actorID, clientMetadata(c))
	if err != nil {
		if businessflow.IsForbidden(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
		}
		if businessflow.IsMemberNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Member not found", "MEMBER_NOT_FOUND", nil)
		}

		log.Println("Member status toggle failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Member status toggle failed", "MEMBER_STATUS_TOGGLE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Member status updated", result)
}
