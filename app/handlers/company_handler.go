package handlers

import (
	"log"

	"github.com/associacao-viver/membership-api/app/dto"
	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CompanyHandlerInterface defines the contract for partner company handlers
type CompanyHandlerInterface interface {
	Register(c fiber.Ctx) error
	Approve(c fiber.Ctx) error
	Reject(c fiber.Ctx) error
	ListPending(c fiber.Ctx) error
}

// CompanyHandler handles partner-company HTTP requests
type CompanyHandler struct {
	companyFlow businessflow.CompanyFlow
	validator   *validator.Validate
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyFlow businessflow.CompanyFlow) *CompanyHandler {
	return &CompanyHandler{
		companyFlow: companyFlow,
		validator:   newValidator(),
	}
}

func (h *CompanyHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CompanyHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register files a partner company application
func (h *CompanyHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterCompanyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.companyFlow.Register(createRequestContext(c), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCompanyAlreadyRegistered(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "CNPJ already has an open or approved application", "COMPANY_ALREADY_REGISTERED", nil)
		}
		if businessflow.IsInvalidRegistrationNumber(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "CNPJ must have 14 digits", "INVALID_REGISTRATION_NUMBER", nil)
		}

		log.Println("Company registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Company registration failed", "COMPANY_REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Company application submitted", result)
}

// Approve accepts a pending application (admin only)
func (h *CompanyHandler) Approve(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	companyUUID := c.Params("uuid")
	if companyUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Company UUID is required", "INVALID_REQUEST", nil)
	}

	result, err := h.companyFlow.Approve(createRequestContext(c), companyUUID, actorID, clientMetadata(c))
	if err != nil {
		return h.reviewErrorResponse(c, err, "Company approval failed", "COMPANY_APPROVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Company approved", result)
}

// Reject declines a pending application, optionally with a reason (admin only)
func (h *CompanyHandler) Reject(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	companyUUID := c.Params("uuid")
	if companyUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Company UUID is required", "INVALID_REQUEST", nil)
	}

	// The body is optional; rejecting without a reason is allowed
	var req dto.RejectCompanyRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}

		if err := h.validator.Struct(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
		}
	}

	result, err := h.companyFlow.Reject(createRequestContext(c), companyUUID, actorID, req.Reason, clientMetadata(c))
	if err != nil {
		return h.reviewErrorResponse(c, err, "Company rejection failed", "COMPANY_REJECT_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Company rejected", result)
}

// ListPending returns applications awaiting review (admin only)
func (h *CompanyHandler) ListPending(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	limit := fiber.Query(c, "limit", 50)
	offset := fiber.Query(c, "offset", 0)

	result, err := h.companyFlow.ListPending(createRequestContext(c), actorID, limit, offset)
	if err != nil {
		if businessflow.IsForbidden(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
		}

		log.Println("Company listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list companies", "COMPANY_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pending companies fetched", result)
}

// reviewErrorResponse maps the shared review-decision errors
func (h *CompanyHandler) reviewErrorResponse(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsCompanyNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Company not found", "COMPANY_NOT_FOUND", nil)
	}
	if businessflow.IsForbidden(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
	}
	if businessflow.IsInvalidTransition(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Company application is not pending", "INVALID_TRANSITION", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}
