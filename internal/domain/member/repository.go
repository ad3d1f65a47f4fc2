package member

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MemberRepository reads and writes member profiles
type MemberRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	// FindByIDs returns the members that exist, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Member, error)
	FindByReferralCode(ctx context.Context, code string) (*Member, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Member, int64, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	ExistsByReferralCode(ctx context.Context, code string) (bool, error)
	// Save inserts a new member
	Save(ctx context.Context, m *Member) error
	// SaveWithLock updates profile fields guarded by the aggregate version.
	// Tree links and earnings counters are never written here.
	SaveWithLock(ctx context.Context, m *Member) error
}

// TreeRepository performs the compare-and-set updates on tree links
type TreeRepository interface {
	// ClaimChildSlot sets parent.<slot> = childID only if the slot is still empty.
	// Returns false when another placement claimed it first.
	ClaimChildSlot(ctx context.Context, parentID uuid.UUID, slot TreeSlot, childID uuid.UUID) (bool, error)
	// AssignParent sets child.referred_by = parentID only if the child is
	// still unplaced and has no children. Returns false otherwise.
	AssignParent(ctx context.Context, childID, parentID uuid.UUID) (bool, error)
}

// EarningsRepository applies atomic counter updates on member earnings
type EarningsRepository interface {
	// CreditEarnings adds amount to total and pending
	CreditEarnings(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) error
	// WithdrawPending moves amount from pending to withdrawn.
	// Returns ErrInsufficientPendingBalance when pending < amount.
	WithdrawPending(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) error
	// ReverseEarnings subtracts amount from total and pending.
	// Returns ErrInconsistentLedger when either counter would go negative.
	ReverseEarnings(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) error
	// AddPoints adds (or with a negative delta removes, floored at zero) loyalty points
	AddPoints(ctx context.Context, memberID uuid.UUID, delta int64) error
}
