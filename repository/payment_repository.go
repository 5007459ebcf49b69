package repository

import (
	"context"
	"errors"
	"time"

	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/utils"
	"gorm.io/gorm"
)

// PaymentRepositoryImpl implements PaymentRepository interface
type PaymentRepositoryImpl struct {
	*BaseRepository[models.Payment, models.PaymentFilter]
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Payment, models.PaymentFilter](db),
	}
}

// ByUUID finds a payment by UUID
func (r *PaymentRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Payment, error) {
	db := r.getDB(ctx)
	var payment models.Payment
	err := db.Where("uuid = ?", uuid).Last(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ByMemberID finds payments submitted by a member, newest first
func (r *PaymentRepositoryImpl) ByMemberID(ctx context.Context, memberID uint, limit, offset int) ([]*models.Payment, error) {
	db := r.getDB(ctx)
	var payments []*models.Payment

	query := db.Where("member_id = ?", memberID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListPendingForReview lists pending payments still inside their review
// window, oldest first so the queue is processed in submission order
func (r *PaymentRepositoryImpl) ListPendingForReview(ctx context.Context, asOf time.Time, limit, offset int) ([]*models.Payment, error) {
	db := r.getDB(ctx)
	var payments []*models.Payment

	query := db.Where("status = ?", models.PaymentStatusPending).
		Where("expires_at IS NULL OR expires_at > ?", asOf).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ExistsPendingByMemberAndType checks for an open payment of the same type
func (r *PaymentRepositoryImpl) ExistsPendingByMemberAndType(ctx context.Context, memberID uint, paymentType models.PaymentType) (bool, error) {
	db := r.getDB(ctx)
	var count int64

	err := db.Model(&models.Payment{}).
		Where("member_id = ? AND type = ? AND status = ?", memberID, paymentType, models.PaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists changes to an existing payment
func (r *PaymentRepositoryImpl) Update(ctx context.Context, payment *models.Payment) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	payment.UpdatedAt = utils.UTCNow()
	err = db.Save(payment).Error
	if err != nil {
		return err
	}

	return nil
}

// TransitionFromPending performs a compare-and-swap status change. The WHERE
// clause on the current status serializes concurrent reviewers: only one
// caller observes rowsAffected == 1, every later one gets false.
func (r *PaymentRepositoryImpl) TransitionFromPending(ctx context.Context, paymentID uint, newStatus models.PaymentStatus, updates map[string]any) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	values := map[string]any{
		"status":     newStatus,
		"updated_at": utils.UTCNow(),
	}
	for k, v := range updates {
		values[k] = v
	}

	result := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Updates(values)
	if result.Error != nil {
		err = result.Error
		return false, err
	}

	return result.RowsAffected == 1, nil
}

// ByFilter retrieves payments based on filter criteria
func (r *PaymentRepositoryImpl) ByFilter(ctx context.Context, filter models.PaymentFilter, orderBy string, limit, offset int) ([]*models.Payment, error) {
	db := r.getDB(ctx)
	var payments []*models.Payment

	query := db.Model(&models.Payment{})
	query = r.applyFilter(query, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("created_at DESC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Count returns the number of payments matching the filter
func (r *PaymentRepositoryImpl) Count(ctx context.Context, filter models.PaymentFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.Payment{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any payment matching the filter exists
func (r *PaymentRepositoryImpl) Exists(ctx context.Context, filter models.PaymentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *PaymentRepositoryImpl) applyFilter(query *gorm.DB, filter models.PaymentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.ApprovedBy != nil {
		query = query.Where("approved_by = ?", *filter.ApprovedBy)
	}
	if filter.MinAmountCents != nil {
		query = query.Where("amount_cents >= ?", *filter.MinAmountCents)
	}
	if filter.MaxAmountCents != nil {
		query = query.Where("amount_cents <= ?", *filter.MaxAmountCents)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.NotExpiredAt != nil {
		query = query.Where("expires_at IS NULL OR expires_at > ?", *filter.NotExpiredAt)
	}
	return query
}
