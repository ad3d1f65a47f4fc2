package commission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a commission record
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Paid and cancelled are terminal.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && (target == StatusPaid || target == StatusCancelled)
}

// Record is one ledger entry crediting an ancestor for a purchase made
// below it. Amounts are never edited after creation, only the status moves.
type Record struct {
	shared.BaseEntity
	BeneficiaryID uuid.UUID
	FromMemberID  uuid.UUID
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	Level         int
	Quantity      int
	UnitAmount    decimal.Decimal
	Amount        decimal.Decimal
	Status        Status
	CancelReason  string
	PaidAt        *time.Time
	CancelledAt   *time.Time
}

// NewRecord creates a pending record paying unitAmount * quantity
func NewRecord(beneficiaryID, fromMemberID, orderID, productID uuid.UUID, level int, unitAmount decimal.Decimal, quantity int) (*Record, error) {
	if beneficiaryID == uuid.Nil || fromMemberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Beneficiary and buyer are required")
	}
	if beneficiaryID == fromMemberID {
		return nil, shared.NewDomainError("INVALID_MEMBER", "A member cannot earn commission on their own purchase")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID is required")
	}
	if level < 1 {
		return nil, shared.NewDomainError("INVALID_LEVEL", fmt.Sprintf("Commission level %d must be at least 1", level))
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !unitAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Record{
		BaseEntity:    shared.NewBaseEntity(),
		BeneficiaryID: beneficiaryID,
		FromMemberID:  fromMemberID,
		OrderID:       orderID,
		ProductID:     productID,
		Level:         level,
		Quantity:      quantity,
		UnitAmount:    unitAmount,
		Amount:        unitAmount.Mul(decimal.NewFromInt(int64(quantity))),
		Status:        StatusPending,
	}, nil
}

// IsPending reports whether the record still counts toward pending withdrawal
func (r *Record) IsPending() bool {
	return r.Status == StatusPending
}

// Cancel moves a pending record to cancelled
func (r *Record) Cancel(reason string) error {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError(ErrRecordNotCancellable.Code,
			fmt.Sprintf("Cannot cancel commission record in %s status", r.Status))
	}
	now := time.Now()
	r.Status = StatusCancelled
	r.CancelReason = strings.TrimSpace(reason)
	r.CancelledAt = &now
	r.UpdatedAt = now
	return nil
}

// MarkPaid moves a pending record to paid
func (r *Record) MarkPaid() error {
	if !r.Status.CanTransitionTo(StatusPaid) {
		return shared.NewDomainError(ErrRecordNotPayable.Code,
			fmt.Sprintf("Cannot pay commission record in %s status", r.Status))
	}
	now := time.Now()
	r.Status = StatusPaid
	r.PaidAt = &now
	r.UpdatedAt = now
	return nil
}
