package repository

import (
	"context"
	"errors"

	"github.com/associacao-viver/membership-api/models"
	"github.com/associacao-viver/membership-api/utils"
	"gorm.io/gorm"
)

// PartnerCompanyRepositoryImpl implements PartnerCompanyRepository interface
type PartnerCompanyRepositoryImpl struct {
	*BaseRepository[models.PartnerCompany, models.PartnerCompanyFilter]
}

// NewPartnerCompanyRepository creates a new partner company repository
func NewPartnerCompanyRepository(db *gorm.DB) PartnerCompanyRepository {
	return &PartnerCompanyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PartnerCompany, models.PartnerCompanyFilter](db),
	}
}

// ByUUID finds a partner company by UUID
func (r *PartnerCompanyRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PartnerCompany, error) {
	db := r.getDB(ctx)
	var company models.PartnerCompany
	err := db.Where("uuid = ?", uuid).Last(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// ActiveByRegistrationNumber finds the pending or approved registration for a
// CNPJ. Rejected rows are ignored so the company can apply again.
func (r *PartnerCompanyRepositoryImpl) ActiveByRegistrationNumber(ctx context.Context, registrationNumber string) (*models.PartnerCompany, error) {
	db := r.getDB(ctx)
	var company models.PartnerCompany
	err := db.Where("registration_number = ? AND status <> ?", registrationNumber, models.CompanyStatusRejected).
		Last(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// ListPending lists registrations awaiting review, oldest first
func (r *PartnerCompanyRepositoryImpl) ListPending(ctx context.Context, limit, offset int) ([]*models.PartnerCompany, error) {
	db := r.getDB(ctx)
	var companies []*models.PartnerCompany

	query := db.Where("status = ?", models.CompanyStatusPending).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// TransitionFromPending performs a compare-and-swap status change on a
// pending registration. Returns false when the row already left pending.
func (r *PartnerCompanyRepositoryImpl) TransitionFromPending(ctx context.Context, companyID uint, newStatus models.CompanyStatus, updates map[string]any) (bool, error) {
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

	result := db.Model(&models.PartnerCompany{}).
		Where("id = ? AND status = ?", companyID, models.CompanyStatusPending).
		Updates(values)
	if result.Error != nil {
		err = result.Error
		return false, err
	}

	return result.RowsAffected == 1, nil
}

// ByFilter retrieves partner companies based on filter criteria
func (r *PartnerCompanyRepositoryImpl) ByFilter(ctx context.Context, filter models.PartnerCompanyFilter, orderBy string, limit, offset int) ([]*models.PartnerCompany, error) {
	db := r.getDB(ctx)
	var companies []*models.PartnerCompany

	query := db.Model(&models.PartnerCompany{})
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

	err := query.Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// Count returns the number of partner companies matching the filter
func (r *PartnerCompanyRepositoryImpl) Count(ctx context.Context, filter models.PartnerCompanyFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.PartnerCompany{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any partner company matching the filter exists
func (r *PartnerCompanyRepositoryImpl) Exists(ctx context.Context, filter models.PartnerCompanyFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *PartnerCompanyRepositoryImpl) applyFilter(query *gorm.DB, filter models.PartnerCompanyFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.RegistrationNumber != nil {
		query = query.Where("registration_number = ?", *filter.RegistrationNumber)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ReviewedBy != nil {
		query = query.Where("reviewed_by = ?", *filter.ReviewedBy)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}
