package member

import (
	"fmt"

	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Earnings holds a member's commission counters.
// TotalEarnings == PendingWithdrawal + WithdrawnAmount and no counter is negative.
type Earnings struct {
	TotalEarnings     decimal.Decimal
	PendingWithdrawal decimal.Decimal
	WithdrawnAmount   decimal.Decimal
}

// ZeroEarnings returns empty counters
func ZeroEarnings() Earnings {
	return Earnings{
		TotalEarnings:     decimal.Zero,
		PendingWithdrawal: decimal.Zero,
		WithdrawnAmount:   decimal.Zero,
	}
}

// Validate checks the ledger invariant
func (e Earnings) Validate() error {
	if e.TotalEarnings.IsNegative() || e.PendingWithdrawal.IsNegative() || e.WithdrawnAmount.IsNegative() {
		return inconsistent("negative counter (total=%s pending=%s withdrawn=%s)",
			e.TotalEarnings, e.PendingWithdrawal, e.WithdrawnAmount)
	}
	if !e.TotalEarnings.Equal(e.PendingWithdrawal.Add(e.WithdrawnAmount)) {
		return inconsistent("total %s != pending %s + withdrawn %s",
			e.TotalEarnings, e.PendingWithdrawal, e.WithdrawnAmount)
	}
	return nil
}

// Credit adds a commission to total and pending
func (e Earnings) Credit(amount decimal.Decimal) (Earnings, error) {
	if amount.IsNegative() {
		return e, shared.NewDomainError("INVALID_AMOUNT", "Credit amount cannot be negative")
	}
	return Earnings{
		TotalEarnings:     e.TotalEarnings.Add(amount),
		PendingWithdrawal: e.PendingWithdrawal.Add(amount),
		WithdrawnAmount:   e.WithdrawnAmount,
	}, nil
}

// Withdraw moves amount from pending to withdrawn; total is unchanged
func (e Earnings) Withdraw(amount decimal.Decimal) (Earnings, error) {
	if !amount.IsPositive() {
		return e, shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	if amount.GreaterThan(e.PendingWithdrawal) {
		return e, shared.NewDomainError(ErrInsufficientPendingBalance.Code,
			fmt.Sprintf("Withdrawal of %s exceeds pending balance %s", amount, e.PendingWithdrawal))
	}
	return Earnings{
		TotalEarnings:     e.TotalEarnings,
		PendingWithdrawal: e.PendingWithdrawal.Sub(amount),
		WithdrawnAmount:   e.WithdrawnAmount.Add(amount),
	}, nil
}

// Reverse undoes an earlier credit. A reversal that would drive a counter
// negative means the ledger was already wrong and is never clamped silently.
func (e Earnings) Reverse(amount decimal.Decimal) (Earnings, error) {
	if amount.IsNegative() {
		return e, shared.NewDomainError("INVALID_AMOUNT", "Reversal amount cannot be negative")
	}
	if amount.GreaterThan(e.PendingWithdrawal) || amount.GreaterThan(e.TotalEarnings) {
		return e, inconsistent("reversal of %s exceeds pending %s / total %s",
			amount, e.PendingWithdrawal, e.TotalEarnings)
	}
	return Earnings{
		TotalEarnings:     e.TotalEarnings.Sub(amount),
		PendingWithdrawal: e.PendingWithdrawal.Sub(amount),
		WithdrawnAmount:   e.WithdrawnAmount,
	}, nil
}

func inconsistent(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(ErrInconsistentLedger.Code, "Earnings ledger invariant violated: "+fmt.Sprintf(format, args...))
}
