package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/shopspring/decimal"
)

// DistributeRequest is the completed-order event that triggers distribution
type DistributeRequest struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	BuyerID   uuid.UUID `json:"buyer_id" binding:"required"`
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// DistributionResult lists the records created for an order.
// Duplicate is set when the order had already been distributed.
type DistributionResult struct {
	OrderID     uuid.UUID        `json:"order_id"`
	Duplicate   bool             `json:"duplicate"`
	Records     []RecordResponse `json:"records"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
}

// WithdrawRequest moves pending earnings to withdrawn
type WithdrawRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"max=100"`
}

// CancelCommissionRequest cancels a pending record
type CancelCommissionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// RecordResponse represents a commission record in API responses
type RecordResponse struct {
	ID            uuid.UUID       `json:"id"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	FromMemberID  uuid.UUID       `json:"from_member_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Level         int             `json:"level"`
	Quantity      int             `json:"quantity"`
	UnitAmount    decimal.Decimal `json:"unit_amount"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
}

// WithdrawalResponse represents a withdrawal in API responses
type WithdrawalResponse struct {
	ID        uuid.UUID       `json:"id"`
	MemberID  uuid.UUID       `json:"member_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EarningsResponse is a member's ledger counters
type EarningsResponse struct {
	MemberID          uuid.UUID       `json:"member_id"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	PendingWithdrawal decimal.Decimal `json:"pending_withdrawal"`
	WithdrawnAmount   decimal.Decimal `json:"withdrawn_amount"`
	TotalPoints       int64           `json:"total_points"`
}

// CancelOrderResult reports which records of an order were cancelled
type CancelOrderResult struct {
	OrderID   uuid.UUID        `json:"order_id"`
	Cancelled []RecordResponse `json:"cancelled"`
	// Skipped holds records already paid or cancelled
	Skipped []RecordResponse `json:"skipped"`
}

// ReconciliationReport compares the counters with the ledger rows
type ReconciliationReport struct {
	MemberID          uuid.UUID        `json:"member_id"`
	Counters          EarningsResponse `json:"counters"`
	PendingRecords    decimal.Decimal  `json:"pending_records"`
	PaidRecords       decimal.Decimal  `json:"paid_records"`
	Withdrawals       decimal.Decimal  `json:"withdrawals"`
	ExpectedTotal     decimal.Decimal  `json:"expected_total"`
	ExpectedWithdrawn decimal.Decimal  `json:"expected_withdrawn"`
	Consistent        bool             `json:"consistent"`
	Issues            []string         `json:"issues,omitempty"`
}

// ToRecordResponse converts a domain Record to RecordResponse
func ToRecordResponse(r *commission.Record) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		BeneficiaryID: r.BeneficiaryID,
		FromMemberID:  r.FromMemberID,
		OrderID:       r.OrderID,
		ProductID:     r.ProductID,
		Level:         r.Level,
		Quantity:      r.Quantity,
		UnitAmount:    r.UnitAmount,
		Amount:        r.Amount,
		Status:        string(r.Status),
		CancelReason:  r.CancelReason,
		CreatedAt:     r.CreatedAt,
		PaidAt:        r.PaidAt,
		CancelledAt:   r.CancelledAt,
	}
}

// ToWithdrawalResponse converts a domain Withdrawal to WithdrawalResponse
func ToWithdrawalResponse(w *commission.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:        w.ID,
		MemberID:  w.MemberID,
		Amount:    w.Amount,
		Reference: w.Reference,
		CreatedAt: w.CreatedAt,
	}
}

// CommissionListFilter pages through a member's commission records
type CommissionListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending paid cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// WithdrawalListFilter pages through a member's withdrawals
type WithdrawalListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
