package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormWithdrawalRepository implements WithdrawalRepository using GORM
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewGormWithdrawalRepository creates a new GormWithdrawalRepository
func NewGormWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// Save inserts a withdrawal
func (r *GormWithdrawalRepository) Save(ctx context.Context, w *commission.Withdrawal) error {
	model := &models.WithdrawalModel{}
	model.FromDomain(w)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByMember lists a member's withdrawals
func (r *GormWithdrawalRepository) FindByMember(ctx context.Context, memberID uuid.UUID, filter shared.Filter) ([]commission.Withdrawal, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.WithdrawalModel{}).
		Where("member_id = ?", memberID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, WithdrawalSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var withdrawalModels []models.WithdrawalModel
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&withdrawalModels).Error; err != nil {
		return nil, 0, err
	}

	withdrawals := make([]commission.Withdrawal, len(withdrawalModels))
	for i, model := range withdrawalModels {
		withdrawals[i] = *model.ToDomain()
	}
	return withdrawals, total, nil
}

// SumByMember totals a member's withdrawals
func (r *GormWithdrawalRepository) SumByMember(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.WithdrawalModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("member_id = ?", memberID).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// Ensure GormWithdrawalRepository implements WithdrawalRepository
var _ commission.WithdrawalRepository = (*GormWithdrawalRepository)(nil)
