package commission

import (
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeCommissionRecord = "CommissionRecord"
	AggregateTypeWithdrawal       = "Withdrawal"
)

// Event type constants
const (
	EventTypeCommissionCredited  = "CommissionCredited"
	EventTypeCommissionCancelled = "CommissionCancelled"
	EventTypeCommissionPaid      = "CommissionPaid"
	EventTypeWithdrawalRecorded  = "WithdrawalRecorded"
	EventTypeInconsistentLedger  = "InconsistentLedgerDetected"
)

// CommissionCreditedEvent is raised for every record created by a distribution
type CommissionCreditedEvent struct {
	shared.BaseDomainEvent
	RecordID      uuid.UUID       `json:"record_id"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	FromMemberID  uuid.UUID       `json:"from_member_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Level         int             `json:"level"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewCommissionCreditedEvent creates a CommissionCreditedEvent
func NewCommissionCreditedEvent(r *Record) *CommissionCreditedEvent {
	return &CommissionCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionCredited, AggregateTypeCommissionRecord, r.ID),
		RecordID:        r.ID,
		BeneficiaryID:   r.BeneficiaryID,
		FromMemberID:    r.FromMemberID,
		OrderID:         r.OrderID,
		Level:           r.Level,
		Amount:          r.Amount,
	}
}

// CommissionCancelledEvent is raised when a record is cancelled and its credit reversed
type CommissionCancelledEvent struct {
	shared.BaseDomainEvent
	RecordID      uuid.UUID       `json:"record_id"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// NewCommissionCancelledEvent creates a CommissionCancelledEvent
func NewCommissionCancelledEvent(r *Record) *CommissionCancelledEvent {
	return &CommissionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionCancelled, AggregateTypeCommissionRecord, r.ID),
		RecordID:        r.ID,
		BeneficiaryID:   r.BeneficiaryID,
		OrderID:         r.OrderID,
		Amount:          r.Amount,
		Reason:          r.CancelReason,
	}
}

// CommissionPaidEvent is raised when a record is paid out
type CommissionPaidEvent struct {
	shared.BaseDomainEvent
	RecordID      uuid.UUID       `json:"record_id"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewCommissionPaidEvent creates a CommissionPaidEvent
func NewCommissionPaidEvent(r *Record) *CommissionPaidEvent {
	return &CommissionPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionPaid, AggregateTypeCommissionRecord, r.ID),
		RecordID:        r.ID,
		BeneficiaryID:   r.BeneficiaryID,
		Amount:          r.Amount,
	}
}

// WithdrawalRecordedEvent is raised after a withdrawal is committed
type WithdrawalRecordedEvent struct {
	shared.BaseDomainEvent
	WithdrawalID uuid.UUID       `json:"withdrawal_id"`
	MemberID     uuid.UUID       `json:"member_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewWithdrawalRecordedEvent creates a WithdrawalRecordedEvent
func NewWithdrawalRecordedEvent(w *Withdrawal) *WithdrawalRecordedEvent {
	return &WithdrawalRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWithdrawalRecorded, AggregateTypeWithdrawal, w.ID),
		WithdrawalID:    w.ID,
		MemberID:        w.MemberID,
		Amount:          w.Amount,
	}
}

// InconsistentLedgerEvent is raised for operator alerting when a ledger
// mutation was aborted because the counters no longer add up
type InconsistentLedgerEvent struct {
	shared.BaseDomainEvent
	MemberID  uuid.UUID `json:"member_id"`
	Operation string    `json:"operation"`
	Detail    string    `json:"detail"`
}

// NewInconsistentLedgerEvent creates an InconsistentLedgerEvent
func NewInconsistentLedgerEvent(memberID uuid.UUID, operation, detail string) *InconsistentLedgerEvent {
	return &InconsistentLedgerEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInconsistentLedger, "Member", memberID),
		MemberID:        memberID,
		Operation:       operation,
		Detail:          detail,
	}
}
