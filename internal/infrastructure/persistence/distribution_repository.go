package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDistributionRepository implements DistributionRepository using GORM.
// The order_id primary key is the durable idempotency guard.
type GormDistributionRepository struct {
	db *gorm.DB
}

// NewGormDistributionRepository creates a new GormDistributionRepository
func NewGormDistributionRepository(db *gorm.DB) *GormDistributionRepository {
	return &GormDistributionRepository{db: db}
}

// Insert stores the guard row. Returns false when the order already has one.
func (r *GormDistributionRepository) Insert(ctx context.Context, d *commission.Distribution) (bool, error) {
	model := &models.CommissionDistributionModel{}
	model.FromDomain(d)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindByOrder returns the guard row of an order
func (r *GormDistributionRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*commission.Distribution, error) {
	var model models.CommissionDistributionModel
	if err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormDistributionRepository implements DistributionRepository
var _ commission.DistributionRepository = (*GormDistributionRepository)(nil)
