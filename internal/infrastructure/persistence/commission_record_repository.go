package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCommissionRecordRepository implements RecordRepository using GORM
type GormCommissionRecordRepository struct {
	db *gorm.DB
}

// NewGormCommissionRecordRepository creates a new GormCommissionRecordRepository
func NewGormCommissionRecordRepository(db *gorm.DB) *GormCommissionRecordRepository {
	return &GormCommissionRecordRepository{db: db}
}

// FindByID finds a commission record by its ID
func (r *GormCommissionRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Record, error) {
	var model models.CommissionRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder returns the records of an order, lowest level first
func (r *GormCommissionRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]commission.Record, error) {
	var recordModels []models.CommissionRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("level ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]commission.Record, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// FindByBeneficiary lists the records credited to a member
func (r *GormCommissionRecordRepository) FindByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, filter shared.Filter) ([]commission.Record, int64, error) {
	var total int64
	base := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.CommissionRecordModel{}).Where("beneficiary_id = ?", beneficiaryID),
		filter,
	)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recordModels []models.CommissionRecordModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.CommissionRecordModel{}).Where("beneficiary_id = ?", beneficiaryID),
		filter,
	)
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]commission.Record, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}

// SaveBatch inserts new records in one statement
func (r *GormCommissionRecordRepository) SaveBatch(ctx context.Context, records []*commission.Record) error {
	if len(records) == 0 {
		return nil
	}
	recordModels := make([]*models.CommissionRecordModel, len(records))
	for i, rec := range records {
		recordModels[i] = &models.CommissionRecordModel{}
		recordModels[i].FromDomain(rec)
	}
	if err := r.db.WithContext(ctx).Create(recordModels).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateStatus writes the status fields only while the stored status is still from
func (r *GormCommissionRecordRepository) UpdateStatus(ctx context.Context, rec *commission.Record, from commission.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CommissionRecordModel{}).
		Where("id = ? AND status = ?", rec.ID, from).
		Updates(map[string]interface{}{
			"status":        rec.Status,
			"cancel_reason": rec.CancelReason,
			"paid_at":       rec.PaidAt,
			"cancelled_at":  rec.CancelledAt,
			"updated_at":    rec.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SumByBeneficiary totals a member's record amounts per status
func (r *GormCommissionRecordRepository) SumByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (map[commission.Status]decimal.Decimal, error) {
	var rows []struct {
		Status commission.Status
		Total  decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.CommissionRecordModel{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("beneficiary_id = ?", beneficiaryID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := map[commission.Status]decimal.Decimal{
		commission.StatusPending:   decimal.Zero,
		commission.StatusPaid:      decimal.Zero,
		commission.StatusCancelled: decimal.Zero,
	}
	for _, row := range rows {
		sums[row.Status] = row.Total
	}
	return sums, nil
}

// applyFilter applies filter options to the query
func (r *GormCommissionRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	sortField := ValidateSortField(filter.OrderBy, CommissionRecordSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCommissionRecordRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "level":
			query = query.Where("level = ?", value)
		}
	}
	return query
}

// Ensure GormCommissionRecordRepository implements RecordRepository
var _ commission.RecordRepository = (*GormCommissionRecordRepository)(nil)
