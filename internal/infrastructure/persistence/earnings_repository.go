package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormEarningsRepository implements EarningsRepository with guarded
// in-place counter updates. The counters are never read, modified and
// written back, so concurrent credits and withdrawals cannot lose updates.
type GormEarningsRepository struct {
	db *gorm.DB
}

// NewGormEarningsRepository creates a new GormEarningsRepository
func NewGormEarningsRepository(db *gorm.DB) *GormEarningsRepository {
	return &GormEarningsRepository{db: db}
}

// CreditEarnings adds amount to total and pending
func (r *GormEarningsRepository) CreditEarnings(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount cannot be negative")
	}
	result := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ?", memberID).
		Updates(map[string]interface{}{
			"total_earnings":     gorm.Expr("total_earnings + ?", amount),
			"pending_withdrawal": gorm.Expr("pending_withdrawal + ?", amount),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// WithdrawPending moves amount from pending to withdrawn if pending covers it
func (r *GormEarningsRepository) WithdrawPending(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ? AND pending_withdrawal >= ?", memberID, amount).
		Updates(map[string]interface{}{
			"pending_withdrawal": gorm.Expr("pending_withdrawal - ?", amount),
			"withdrawn_amount":   gorm.Expr("withdrawn_amount + ?", amount),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.load(ctx, memberID)
	if err != nil {
		return err
	}
	if _, err := current.Withdraw(amount); err != nil {
		return err
	}
	return member.ErrInsufficientPendingBalance
}

// ReverseEarnings subtracts amount from total and pending. A reversal that
// would drive either counter negative is refused as an inconsistent ledger.
func (r *GormEarningsRepository) ReverseEarnings(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount cannot be negative")
	}
	result := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ? AND pending_withdrawal >= ? AND total_earnings >= ?", memberID, amount, amount).
		Updates(map[string]interface{}{
			"total_earnings":     gorm.Expr("total_earnings - ?", amount),
			"pending_withdrawal": gorm.Expr("pending_withdrawal - ?", amount),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.load(ctx, memberID)
	if err != nil {
		return err
	}
	if _, err := current.Reverse(amount); err != nil {
		return err
	}
	return member.ErrInconsistentLedger
}

// AddPoints adds delta to the loyalty points, never going below zero
func (r *GormEarningsRepository) AddPoints(ctx context.Context, memberID uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ?", memberID).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("CASE WHEN total_points + ? < 0 THEN 0 ELSE total_points + ? END", delta, delta),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// load reads the current counters to explain a refused update
func (r *GormEarningsRepository) load(ctx context.Context, memberID uuid.UUID) (member.Earnings, error) {
	var model models.MemberModel
	if err := r.db.WithContext(ctx).
		Select("id", "total_earnings", "pending_withdrawal", "withdrawn_amount").
		First(&model, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return member.Earnings{}, shared.ErrNotFound
		}
		return member.Earnings{}, err
	}
	return member.Earnings{
		TotalEarnings:     model.TotalEarnings,
		PendingWithdrawal: model.PendingWithdrawal,
		WithdrawnAmount:   model.WithdrawnAmount,
	}, nil
}

// Ensure GormEarningsRepository implements EarningsRepository
var _ member.EarningsRepository = (*GormEarningsRepository)(nil)
