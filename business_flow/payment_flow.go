package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/services"
	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/repository"
	"github.com/associacao-viver/membership-api/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// PaymentFlow handles the payment lifecycle: submission, receipt upload,
// member cancellation and admin review
type PaymentFlow interface {
	Create(ctx context.Context, memberID uint, request *dto.CreatePaymentRequest, metadata *ClientMetadata) (*dto.CreatePaymentResponse, error)
	AttachReceipt(ctx context.Context, paymentUUID string, memberID uint, filename, mimetype string, data []byte, metadata *ClientMetadata) (*dto.AttachReceiptResponse, error)
	Cancel(ctx context.Context, paymentUUID string, memberID uint, metadata *ClientMetadata) (*dto.ReviewPaymentResponse, error)
	Approve(ctx context.Context, paymentUUID string, actorID uint, metadata *ClientMetadata) (*dto.ReviewPaymentResponse, error)
	Reject(ctx context.Context, paymentUUID string, actorID uint, reason string, metadata *ClientMetadata) (*dto.ReviewPaymentResponse, error)
	ListPendingForReview(ctx context.Context, actorID uint, limit, offset int) (*dto.ListPaymentsResponse, error)
	ListMemberPayments(ctx context.Context, memberID uint, limit, offset int) (*dto.ListPaymentsResponse, error)
	ExportPayments(ctx context.Context, actorID uint, filter models.PaymentFilter, metadata *ClientMetadata) (string, []byte, error)
}

// PaymentFlowImpl implements the payment business flow
type PaymentFlowImpl struct {
	paymentRepo    repository.PaymentRepository
	memberRepo     repository.MemberRepository
	auditRepo      repository.AuditLogRepository
	receiptStorage services.ReceiptStorage
	db             *gorm.DB
}

// NewPaymentFlow creates a new payment flow instance
func NewPaymentFlow(
	paymentRepo repository.PaymentRepository,
	memberRepo repository.MemberRepository,
	auditRepo repository.AuditLogRepository,
	receiptStorage services.ReceiptStorage,
	db *gorm.DB,
) PaymentFlow {
	return &PaymentFlowImpl{
		paymentRepo:    paymentRepo,
		memberRepo:     memberRepo,
		auditRepo:      auditRepo,
		receiptStorage: receiptStorage,
		db:             db,
	}
}

// Create submits a payment for admin review. One pending payment per type
// per member; monthly fees must name their reference month.
func (pf *PaymentFlowImpl) Create(ctx context.Context, memberID uint, request *dto.CreatePaymentRequest, metadata *ClientMetadata) (*dto.CreatePaymentResponse, error) {
	if request.AmountCents <= 0 {
		return nil, NewBusinessError("PAYMENT_VALIDATION_FAILED", "Payment validation failed", ErrInvalidAmount)
	}

	paymentType := models.PaymentType(request.Type)
	if paymentType == models.PaymentTypeMonthlyFee && request.ReferenceMonth == nil {
		return nil, NewBusinessError("PAYMENT_VALIDATION_FAILED", "Payment validation failed", ErrReferenceMonthRequired)
	}
	if request.DueDate.IsZero() {
		return nil, NewBusinessError("PAYMENT_VALIDATION_FAILED", "Payment validation failed", ErrDueDateRequired)
	}

	var member *models.Member
	var payment *models.Payment

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		member, err = pf.memberRepo.ByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		exists, err := pf.paymentRepo.ExistsPendingByMemberAndType(ctx, memberID, paymentType)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePending
		}

		// The review window closes a fixed number of days after the due date
		dueDate := request.DueDate.UTC()
		payment = &models.Payment{
			MemberID:       memberID,
			AmountCents:    request.AmountCents,
			Type:           paymentType,
			Method:         models.PaymentMethod(request.Method),
			Status:         models.PaymentStatusPending,
			ReferenceMonth: request.ReferenceMonth,
			DueDate:        dueDate,
			Notes:          request.Notes,
			ExpiresAt:      utils.ToPtr(dueDate.Add(utils.PaymentExpiryDays * 24 * time.Hour)),
		}

		return pf.paymentRepo.Save(ctx, payment)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Payment creation failed: %s", err.Error())
		_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionPaymentCreated, errMsg, false, metadata)
		return nil, NewBusinessError("PAYMENT_CREATION_FAILED", "Payment creation failed", err)
	}

	msg := fmt.Sprintf("Payment created: %d (%d centavos, %s)", payment.ID, payment.AmountCents, payment.Type)
	_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionPaymentCreated, msg, true, metadata)

	return &dto.CreatePaymentResponse{Payment: ToPaymentDTO(*payment)}, nil
}

// AttachReceipt stores the uploaded receipt and records its metadata on the
// pending payment. A previous receipt is replaced and its file removed.
func (pf *PaymentFlowImpl) AttachReceipt(ctx context.Context, paymentUUID string, memberID uint, filename, mimetype string, data []byte, metadata *ClientMetadata) (*dto.AttachReceiptResponse, error) {
	if len(data) == 0 {
		return nil, NewBusinessError("RECEIPT_VALIDATION_FAILED", "Receipt validation failed", ErrReceiptRequired)
	}

	var member *models.Member
	var payment *models.Payment
	var previousKey *string

	key, err := pf.receiptStorage.Store(ctx, filename, data)
	if err != nil {
		return nil, NewBusinessError("RECEIPT_STORE_FAILED", "Failed to store receipt", err)
	}

	err = repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		payment, err = pf.paymentRepo.ByUUID(ctx, paymentUUID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if payment.MemberID != memberID {
			return ErrForbidden
		}
		if !payment.IsPending() || payment.IsExpired() {
			return ErrInvalidTransition
		}

		member, err = pf.memberRepo.ByID(ctx, memberID)
		if err != nil {
			return err
		}

		previousKey = payment.ReceiptPath
		payment.ReceiptPath = &key
		payment.ReceiptFilename = &filename
		payment.ReceiptMimetype = &mimetype
		payment.ReceiptSize = utils.ToPtr(int64(len(data)))

		return pf.paymentRepo.Update(ctx, payment)
	})

	if err != nil {
		// The orphaned upload is removed; the database saw nothing.
		_ = pf.receiptStorage.Delete(ctx, key)
		errMsg := fmt.Sprintf("Receipt attach failed: %s", err.Error())
		_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionReceiptAttached, errMsg, false, metadata)
		return nil, NewBusinessError("RECEIPT_ATTACH_FAILED", "Receipt attach failed", err)
	}

	if previousKey != nil && *previousKey != "" {
		_ = pf.receiptStorage.Delete(ctx, *previousKey)
	}

	msg := fmt.Sprintf("Receipt attached to payment %d: %s", payment.ID, filename)
	_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionReceiptAttached, msg, true, metadata)

	return &dto.AttachReceiptResponse{Payment: ToPaymentDTO(*payment)}, nil
}

// Cancel lets the submitting member withdraw a pending payment. The stored
// receipt file is released after the transaction commits.
func (pf *PaymentFlowImpl) Cancel(ctx context.Context, paymentUUID string, memberID uint, metadata *ClientMetadata) (*dto.ReviewPaymentResponse, error) {
	var member *models.Member
	var payment *models.Payment
	var receiptKey *string

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		payment, err = pf.paymentRepo.ByUUID(ctx, paymentUUID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if payment.MemberID != memberID {
			return ErrForbidden
		}

		member, err = pf.memberRepo.ByID(ctx, memberID)
		if err != nil {
			return err
		}

		receiptKey = payment.ReceiptPath
		ok, err := pf.paymentRepo.TransitionFromPending(ctx, payment.ID, models.PaymentStatusCancelled, map[string]any{
			"receipt_path":     nil,
			"receipt_filename": nil,
			"receipt_mimetype": nil,
			"receipt_size":     nil,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		payment.Status = models.PaymentStatusCancelled
		payment.ReceiptPath = nil
		payment.ReceiptFilename = nil
		payment.ReceiptMimetype = nil
		payment.ReceiptSize = nil
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Payment cancellation failed: %s", err.Error())
		_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionPaymentCancelled, errMsg, false, metadata)
		return nil, NewBusinessError("PAYMENT_CANCEL_FAILED", "Payment cancellation failed", err)
	}

	if receiptKey != nil && *receiptKey != "" {
		_ = pf.receiptStorage.Delete(ctx, *receiptKey)
	}

	msg := fmt.Sprintf("Payment cancelled by member %d: %d", memberID, payment.ID)
	_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionPaymentCancelled, msg, true, metadata)

	return &dto.ReviewPaymentResponse{Payment: ToPaymentDTO(*payment)}, nil
}

// Approve finalizes a pending payment and applies its member side effects
// in the same transaction: the donation total grows and the membership is
// (re)activated with a fresh period. Admin only.
func (pf *PaymentFlowImpl) Approve(ctx context.Context, paymentUUID string, actorID uint, metadata *ClientMetadata) (*dto.ReviewPaymentResponse, error) {
	var actor *models.Member
	var member *models.Member
	var payment *models.Payment

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		actor, err = pf.memberRepo.ByID(ctx, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.IsAdmin() {
			return ErrForbidden
		}

		payment, err = pf.paymentRepo.ByUUID(ctx, paymentUUID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if payment.IsExpired() {
			return ErrInvalidTransition
		}

		now := utils.UTCNow()
		updates := map[string]any{
			"approved_by": actorID,
			"approved_at": now,
		}
		// A settlement timestamp recorded earlier is left alone
		if payment.PaidAt == nil {
			updates["paid_at"] = now
		}
		ok, err := pf.paymentRepo.TransitionFromPending(ctx, payment.ID, models.PaymentStatusApproved, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		// Row-locked so concurrent approvals for the same member serialize
		// instead of overwriting each other's donation total.
		member, err = pf.memberRepo.ByIDForUpdate(ctx, payment.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		if err := recordDonation(member, payment.AmountCents); err != nil {
			return err
		}
		activateMember(member, now)

		if err := pf.memberRepo.Update(ctx, member); err != nil {
			return err
		}

		payment.Status = models.PaymentStatusApproved
		payment.ApprovedBy = &actorID
		payment.ApprovedAt = &now
		if payment.PaidAt == nil {
			payment.PaidAt = &now
		}
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Payment approval failed: %s", err.Error())
		_ = logAudit(ctx, pf.auditRepo, actor, models.AuditActionPaymentApproved, errMsg, false, metadata)
		return nil, NewBusinessError("PAYMENT_APPROVE_FAILED", "Payment approval failed", err)
	}

	msg := fmt.Sprintf("Payment approved by admin %d: %d (%d centavos)", actorID, payment.ID, payment.AmountCents)
	_ = logAudit(ctx, pf.auditRepo, member, models.AuditActionPaymentApproved, msg, true, metadata)

	memberDTO := ToMemberDTO(*member)
	return &dto.ReviewPaymentResponse{
		Payment: ToPaymentDTO(*payment),
		Member:  &memberDTO,
	}, nil
}

// Reject finalizes a pending payment without member side effects. The
// reason is mandatory. Admin only.
func (pf *PaymentFlowImpl) Reject(ctx context.Context, paymentUUID string, actorID uint, reason string, metadata *ClientMetadata) (*dto.ReviewPaymentResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewBusinessError("PAYMENT_REJECT_FAILED", "Payment rejection failed", ErrMissingReason)
	}

	var actor *models.Member
	var payment *models.Payment

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		actor, err = pf.memberRepo.ByID(ctx, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.IsAdmin() {
			return ErrForbidden
		}

		payment, err = pf.paymentRepo.ByUUID(ctx, paymentUUID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		now := utils.UTCNow()
		ok, err := pf.paymentRepo.TransitionFromPending(ctx, payment.ID, models.PaymentStatusRejected, map[string]any{
			"rejected_reason": reason,
			"approved_by":     actorID,
			"approved_at":     now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		payment.Status = models.PaymentStatusRejected
		payment.RejectedReason = &reason
		payment.ApprovedBy = &actorID
		payment.ApprovedAt = &now
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Payment rejection failed: %s", err.Error())
		_ = logAudit(ctx, pf.auditRepo, actor, models.AuditActionPaymentRejected, errMsg, false, metadata)
		return nil, NewBusinessError("PAYMENT_REJECT_FAILED", "Payment rejection failed", err)
	}

	msg := fmt.Sprintf("Payment rejected by admin %d: %d (%s)", actorID, payment.ID, reason)
	_ = logAudit(ctx, pf.auditRepo, actor, models.AuditActionPaymentRejected, msg, true, metadata)

	return &dto.ReviewPaymentResponse{Payment: ToPaymentDTO(*payment)}, nil
}

// ListPendingForReview returns the admin review queue. Pending payments
// whose review window closed are left out.
func (pf *PaymentFlowImpl) ListPendingForReview(ctx context.Context, actorID uint, limit, offset int) (*dto.ListPaymentsResponse, error) {
	if err := pf.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	payments, err := pf.paymentRepo.ListPendingForReview(ctx, now, limit, offset)
	if err != nil {
		return nil, NewBusinessError("PAYMENT_LIST_FAILED", "Failed to list pending payments", err)
	}

	total, err := pf.paymentRepo.Count(ctx, models.PaymentFilter{
		Status:       utils.ToPtr(models.PaymentStatusPending),
		NotExpiredAt: &now,
	})
	if err != nil {
		return nil, NewBusinessError("PAYMENT_LIST_FAILED", "Failed to count pending payments", err)
	}

	return &dto.ListPaymentsResponse{
		Payments: toPaymentDTOs(payments),
		Total:    total,
	}, nil
}

// ListMemberPayments returns a member's own payment history
func (pf *PaymentFlowImpl) ListMemberPayments(ctx context.Context, memberID uint, limit, offset int) (*dto.ListPaymentsResponse, error) {
	payments, err := pf.paymentRepo.ByMemberID(ctx, memberID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("PAYMENT_LIST_FAILED", "Failed to list payments", err)
	}

	total, err := pf.paymentRepo.Count(ctx, models.PaymentFilter{MemberID: &memberID})
	if err != nil {
		return nil, NewBusinessError("PAYMENT_LIST_FAILED", "Failed to count payments", err)
	}

	return &dto.ListPaymentsResponse{
		Payments: toPaymentDTOs(payments),
		Total:    total,
	}, nil
}

// ExportPayments builds an Excel workbook of the matching payment history.
// Admin only.
func (pf *PaymentFlowImpl) ExportPayments(ctx context.Context, actorID uint, filter models.PaymentFilter, metadata *ClientMetadata) (string, []byte, error) {
	if err := pf.requireAdmin(ctx, actorID); err != nil {
		return "", nil, err
	}

	payments, err := pf.paymentRepo.ByFilter(ctx, filter, "created_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("PAYMENT_EXPORT_FAILED", "Failed to fetch payments for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"id", "uuid", "member_id", "amount_cents", "type", "method", "status", "reference_month", "due_date", "paid_at", "approved_by", "approved_at", "rejected_reason", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, p := range payments {
		referenceMonth := ""
		if p.ReferenceMonth != nil {
			referenceMonth = p.ReferenceMonth.UTC().Format("2006-01")
		}
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.UTC().Format(time.RFC3339)
		}
		approvedBy := ""
		if p.ApprovedBy != nil {
			approvedBy = strconv.FormatUint(uint64(*p.ApprovedBy), 10)
		}
		approvedAt := ""
		if p.ApprovedAt != nil {
			approvedAt = p.ApprovedAt.UTC().Format(time.RFC3339)
		}
		rejectedReason := ""
		if p.RejectedReason != nil {
			rejectedReason = *p.RejectedReason
		}
		record := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.UUID.String(),
			strconv.FormatUint(uint64(p.MemberID), 10),
			strconv.FormatInt(p.AmountCents, 10),
			string(p.Type),
			string(p.Method),
			string(p.Status),
			referenceMonth,
			p.DueDate.UTC().Format(time.RFC3339),
			paidAt,
			approvedBy,
			approvedAt,
			rejectedReason,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("PAYMENT_EXPORT_FAILED", "Failed to write Excel file", err)
	}

	msg := fmt.Sprintf("Payments exported by admin %d: %d rows", actorID, len(payments))
	_ = logAudit(ctx, pf.auditRepo, nil, models.AuditActionPaymentsExported, msg, true, metadata)

	filename := fmt.Sprintf("payments_%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

func (pf *PaymentFlowImpl) requireAdmin(ctx context.Context, actorID uint) error {
	actor, err := pf.memberRepo.ByID(ctx, actorID)
	if err != nil {
		return NewBusinessError("FORBIDDEN", "Operation not allowed", err)
	}
	if actor == nil || !actor.IsAdmin() {
		return NewBusinessError("FORBIDDEN", "Operation not allowed", ErrForbidden)
	}
	return nil
}

func toPaymentDTOs(payments []*models.Payment) []dto.PaymentDTO {
	dtos := make([]dto.PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, ToPaymentDTO(*p))
	}
	return dtos
}
