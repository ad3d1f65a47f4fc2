package commission

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Withdrawal is a payout of pending earnings to a member
type Withdrawal struct {
	shared.BaseEntity
	MemberID  uuid.UUID
	Amount    decimal.Decimal
	Reference string
}

// NewWithdrawal creates a withdrawal ledger row
func NewWithdrawal(memberID uuid.UUID, amount decimal.Decimal, reference string) (*Withdrawal, error) {
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	reference = strings.TrimSpace(reference)
	if len(reference) > 100 {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference cannot exceed 100 characters")
	}
	return &Withdrawal{
		BaseEntity: shared.NewBaseEntity(),
		MemberID:   memberID,
		Amount:     amount,
		Reference:  reference,
	}, nil
}
