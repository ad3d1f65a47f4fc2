package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMemberRepository implements MemberRepository using GORM
type GormMemberRepository struct {
	db *gorm.DB
}

// NewGormMemberRepository creates a new GormMemberRepository
func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// FindByID finds a member by its ID
func (r *GormMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	var model models.MemberModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads a batch of members in one query
func (r *GormMemberRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*member.Member, error) {
	if len(ids) == 0 {
		return []*member.Member{}, nil
	}
	var memberModels []models.MemberModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&memberModels).Error; err != nil {
		return nil, err
	}

	members := make([]*member.Member, len(memberModels))
	for i := range memberModels {
		members[i] = memberModels[i].ToDomain()
	}
	return members, nil
}

// FindByReferralCode finds a member by referral code
func (r *GormMemberRepository) FindByReferralCode(ctx context.Context, code string) (*member.Member, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.ErrNotFound
	}
	var model models.MemberModel
	if err := r.db.WithContext(ctx).
		Where("referral_code = ?", code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds members matching the filter and returns the total count
func (r *GormMemberRepository) FindAll(ctx context.Context, filter shared.Filter) ([]member.Member, int64, error) {
	var total int64
	base := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.MemberModel{}), filter)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var memberModels []models.MemberModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MemberModel{}), filter)
	if err := query.Find(&memberModels).Error; err != nil {
		return nil, 0, err
	}

	members := make([]member.Member, len(memberModels))
	for i, model := range memberModels {
		members[i] = *model.ToDomain()
	}
	return members, total, nil
}

// CountByAccount counts the profiles owned by an account
func (r *GormMemberRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByReferralCode checks if a referral code is taken
func (r *GormMemberRepository) ExistsByReferralCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("referral_code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new member
func (r *GormMemberRepository) Save(ctx context.Context, m *member.Member) error {
	model := models.MemberModelFromDomain(m)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock updates the profile fields with optimistic locking (version check).
// Tree links and earnings are left to the conditional updates.
func (r *GormMemberRepository) SaveWithLock(ctx context.Context, m *member.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.MemberModel{}).
			Where("id = ?", m.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != m.Version {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The member has been modified by another request")
		}

		m.Version++
		m.UpdatedAt = time.Now()

		var code *string
		if m.ReferralCode != "" {
			c := m.ReferralCode
			code = &c
		}

		result := tx.Model(&models.MemberModel{}).
			Where("id = ? AND version = ?", m.ID, currentVersion).
			Updates(map[string]interface{}{
				"display_name":  m.DisplayName,
				"role":          m.Role,
				"referral_code": code,
				"version":       m.Version,
				"updated_at":    m.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The member has been modified by another request")
		}
		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormMemberRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	sortField := ValidateSortField(filter.OrderBy, MemberSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormMemberRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(display_name) LIKE ? OR referral_code LIKE ?",
			searchPattern, strings.ToUpper(searchPattern))
	}

	for key, value := range filter.Filters {
		switch key {
		case "role":
			query = query.Where("role = ?", value)
		case "account_id":
			query = query.Where("account_id = ?", value)
		case "referred_by":
			query = query.Where("referred_by = ?", value)
		case "placed":
			if value == true {
				query = query.Where("placed_at IS NOT NULL")
			} else {
				query = query.Where("placed_at IS NULL")
			}
		}
	}

	return query
}

// Ensure GormMemberRepository implements MemberRepository
var _ member.MemberRepository = (*GormMemberRepository)(nil)
