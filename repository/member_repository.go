package repository

import (
	"context"
	"errors"
	"time"

	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepositoryImpl implements MemberRepository interface
type MemberRepositoryImpl struct {
	*BaseRepository[models.Member, models.MemberFilter]
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &MemberRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Member, models.MemberFilter](db),
	}
}

// ByUUID finds a member by UUID
func (r *MemberRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Member, error) {
	db := r.getDB(ctx)
	var member models.Member
	err := db.Where("uuid = ?", uuid).Last(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// ByNationalID finds a member by national ID (CPF, digits only)
func (r *MemberRepositoryImpl) ByNationalID(ctx context.Context, nationalID string) (*models.Member, error) {
	db := r.getDB(ctx)
	var member models.Member
	err := db.Where("national_id = ?", nationalID).Last(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// ByIDForUpdate loads a member holding a row lock for the rest of the
// surrounding transaction. Callers about to read-modify-write member
// aggregates (donation totals, membership period) must use this so
// concurrent writers serialize.
func (r *MemberRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.Member, error) {
	db := r.getDB(ctx)
	var member models.Member
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// ByEmail finds a member by email
func (r *MemberRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Member, error) {
	db := r.getDB(ctx)
	var member models.Member
	err := db.Where("email = ?", email).Last(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// Update persists changes to an existing member
func (r *MemberRepositoryImpl) Update(ctx context.Context, member *models.Member) error {
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

	member.UpdatedAt = utils.UTCNow()
	err = db.Save(member).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateLoginAttempts updates only the login-protection columns
func (r *MemberRepositoryImpl) UpdateLoginAttempts(ctx context.Context, memberID uint, attempts int, lockUntil *time.Time) error {
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

	err = db.Model(&models.Member{}).
		Where("id = ?", memberID).
		Updates(map[string]any{
			"login_attempts": attempts,
			"lock_until":     lockUntil,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ListOverdue lists active members whose next payment due date has passed
func (r *MemberRepositoryImpl) ListOverdue(ctx context.Context, asOf time.Time, limit, offset int) ([]*models.Member, error) {
	db := r.getDB(ctx)
	var members []*models.Member

	query := db.Where("is_active = ? AND next_payment_due < ?", true, asOf).
		Order("next_payment_due ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ByFilter retrieves members based on filter criteria
func (r *MemberRepositoryImpl) ByFilter(ctx context.Context, filter models.MemberFilter, orderBy string, limit, offset int) ([]*models.Member, error) {
	db := r.getDB(ctx)
	var members []*models.Member

	query := db.Model(&models.Member{})
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

	err := query.Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Count returns the number of members matching the filter
func (r *MemberRepositoryImpl) Count(ctx context.Context, filter models.MemberFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.Member{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any member matching the filter exists
func (r *MemberRepositoryImpl) Exists(ctx context.Context, filter models.MemberFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *MemberRepositoryImpl) applyFilter(query *gorm.DB, filter models.MemberFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.NationalID != nil {
		query = query.Where("national_id = ?", *filter.NationalID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.DueBefore != nil {
		query = query.Where("next_payment_due < ?", *filter.DueBefore)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}
