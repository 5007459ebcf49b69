package handlers

import (
	"io"
	"log"
	"time"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/middleware"
	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/associacao-viver/membership-api/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// PaymentHandlerInterface defines the contract for payment handlers
type PaymentHandlerInterface interface {
	Create(c fiber.Ctx) error
	AttachReceipt(c fiber.Ctx) error
	Cancel(c fiber.Ctx) error
	Approve(c fiber.Ctx) error
	Reject(c fiber.Ctx) error
	ListPending(c fiber.Ctx) error
	MyPayments(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentFlow businessflow.PaymentFlow
	validator   *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentFlow businessflow.PaymentFlow) *PaymentHandler {
	return &PaymentHandler{
		paymentFlow: paymentFlow,
		validator:   newValidator(),
	}
}

func (h *PaymentHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PaymentHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create submits a payment for review
func (h *PaymentHandler) Create(c fiber.Ctx) error {
	memberID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.CreatePaymentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.paymentFlow.Create(createRequestContext(c), memberID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidAmount(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Amount must be positive", "INVALID_AMOUNT", nil)
		}
		if businessflow.IsDuplicatePending(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A pending payment of this type already exists", "DUPLICATE_PENDING", nil)
		}
		if businessflow.IsReferenceMonthRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Reference month is required for monthly fees", "REFERENCE_MONTH_REQUIRED", nil)
		}
		if businessflow.IsDueDateRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Due date is required", "DUE_DATE_REQUIRED", nil)
		}
		if businessflow.IsMemberNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Member not found", "MEMBER_NOT_FOUND", nil)
		}

		log.Println("Payment creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payment creation failed", "PAYMENT_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Payment submitted for review", result)
}

// AttachReceipt uploads a receipt file for a pending payment
func (h *PaymentHandler) AttachReceipt(c fiber.Ctx) error {
	memberID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	paymentUUID := c.Params("uuid")
	if paymentUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Payment UUID is required", "INVALID_REQUEST", nil)
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Receipt file is required", "RECEIPT_REQUIRED", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read receipt file", "INVALID_REQUEST", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read receipt file", "INVALID_REQUEST", nil)
	}

	mimetype := fileHeader.Header.Get("Content-Type")

	result, err := h.paymentFlow.AttachReceipt(createRequestContext(c), paymentUUID, memberID, fileHeader.Filename, mimetype, data, clientMetadata(c))
	if err != nil {
		if businessflow.IsPaymentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payment not found", "PAYMENT_NOT_FOUND", nil)
		}
		if businessflow.IsForbidden(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Payment is no longer pending", "INVALID_TRANSITION", nil)
		}
		if businessflow.IsReceiptRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Receipt file is empty", "RECEIPT_REQUIRED", nil)
		}

		log.Println("Receipt attach failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Receipt attach failed", "RECEIPT_ATTACH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Receipt attached", result)
}

// Cancel withdraws the member's own pending payment
func (h *PaymentHandler) Cancel(c fiber.Ctx) error {
	memberID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	paymentUUID := c.Params("uuid")
	if paymentUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Payment UUID is required", "INVALID_REQUEST", nil)
	}

	result, err := h.paymentFlow.Cancel(createRequestContext(c), paymentUUID, memberID, clientMetadata(c))
	if err != nil {
		return h.reviewErrorResponse(c, err, "Payment cancellation failed", "PAYMENT_CANCEL_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payment cancelled", result)
}

// Approve finalizes a pending payment and updates the member (admin only)
func (h *PaymentHandler) Approve(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	paymentUUID := c.Params("uuid")
	if paymentUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Payment UUID is required", "INVALID_REQUEST", nil)
	}

	result, err := h.paymentFlow.Approve(createRequestContext(c), paymentUUID, actorID, clientMetadata(c))
	if err != nil {
		return h.reviewErrorResponse(c, err, "Payment approval failed", "PAYMENT_APPROVE_FAILED")
	}

	middleware.CountPaymentReview("approved")
	return h.SuccessResponse(c, fiber.StatusOK, "Payment approved", result)
}

// Reject declines a pending payment with a reason (admin only)
func (h *PaymentHandler) Reject(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	paymentUUID := c.Params("uuid")
	if paymentUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Payment UUID is required", "INVALID_REQUEST", nil)
	}

	var req dto.RejectPaymentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.paymentFlow.Reject(createRequestContext(c), paymentUUID, actorID, req.Reason, clientMetadata(c))
	if err != nil {
		if businessflow.IsMissingReason(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "A rejection reason is required", "MISSING_REASON", nil)
		}
		return h.reviewErrorResponse(c, err, "Payment rejection failed", "PAYMENT_REJECT_FAILED")
	}

	middleware.CountPaymentReview("rejected")
	return h.SuccessResponse(c, fiber.StatusOK, "Payment rejected", result)
}

// ListPending returns the admin review queue
func (h *PaymentHandler) ListPending(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	limit := fiber.Query(c, "limit", 50)
	offset := fiber.Query(c, "offset", 0)

	result, err := h.paymentFlow.ListPendingForReview(createRequestContext(c), actorID, limit, offset)
	if err != nil {
		if businessflow.IsForbidden(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
		}

		log.Println("Pending payment listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list pending payments", "PAYMENT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pending payments fetched", result)
}

// MyPayments returns the authenticated member's payment history
func (h *PaymentHandler) MyPayments(c fiber.Ctx) error {
	memberID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	limit := fiber.Query(c, "limit", 50)
	offset := fiber.Query(c, "offset", 0)

	result, err := h.paymentFlow.ListMemberPayments(createRequestContext(c), memberID, limit, offset)
	if err != nil {
		log.Println("Payment listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list payments", "PAYMENT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payments fetched", result)
}

// Export downloads the payment history as an Excel workbook (admin only)
func (h *PaymentHandler) Export(c fiber.Ctx) error {
	actorID, ok := memberIDFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	filter := models.PaymentFilter{}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "from must be YYYY-MM-DD", "INVALID_REQUEST", nil)
		}
		filter.CreatedAfter = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "to must be YYYY-MM-DD", "INVALID_REQUEST", nil)
		}
		filter.CreatedBefore = &t
	}
	if status := c.Query("status"); status != "" {
		s := models.PaymentStatus(status)
		filter.Status = &s
	}

	filename, content, err := h.paymentFlow.ExportPayments(createRequestContextWithTimeout(c, 2*time.Minute), actorID, filter, clientMetadata(c))
	if err != nil {
		if businessflow.IsForbidden(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
		}

		log.Println("Payment export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payment export failed", "PAYMENT_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

// reviewErrorResponse maps the shared review-decision errors
func (h *PaymentHandler) reviewErrorResponse(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsPaymentNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Payment not found", "PAYMENT_NOT_FOUND", nil)
	}
	if businessflow.IsForbidden(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Operation not allowed", "FORBIDDEN", nil)
	}
	if businessflow.IsInvalidTransition(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Payment is not pending", "INVALID_TRANSITION", nil)
	}
	if businessflow.IsMemberNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Member not found", "MEMBER_NOT_FOUND", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}
