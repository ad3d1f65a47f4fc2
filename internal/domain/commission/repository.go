package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RecordRepository stores commission ledger entries
type RecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Record, error)
	FindByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, filter shared.Filter) ([]Record, int64, error)
	// SaveBatch inserts new records
	SaveBatch(ctx context.Context, records []*Record) error
	// UpdateStatus writes the record's status fields only if the stored
	// status still equals from. Returns false when it has moved on.
	UpdateStatus(ctx context.Context, r *Record, from Status) (bool, error)
	// SumByBeneficiary totals record amounts per status
	SumByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (map[Status]decimal.Decimal, error)
}

// DistributionRepository stores the per-order distribution guard
type DistributionRepository interface {
	// Insert records the order as distributed. Returns false when the
	// order already has a distribution.
	Insert(ctx context.Context, d *Distribution) (bool, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Distribution, error)
}

// WithdrawalRepository stores withdrawals
type WithdrawalRepository interface {
	Save(ctx context.Context, w *Withdrawal) error
	FindByMember(ctx context.Context, memberID uuid.UUID, filter shared.Filter) ([]Withdrawal, int64, error)
	SumByMember(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error)
}
