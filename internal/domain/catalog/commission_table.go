package catalog

import (
	"fmt"
	"sort"

	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	// MaxCommissionLevels is the deepest ancestor level a table may pay
	MaxCommissionLevels = 20
	// MinCommissionLevel is the direct referrer
	MinCommissionLevel = 1
)

// CommissionEntry pays Amount per unit sold to the ancestor at Level
type CommissionEntry struct {
	Level  int             `json:"level"`
	Amount decimal.Decimal `json:"amount"`
}

// CommissionExceedsProfitError reports a structure whose total is larger than price - cost
type CommissionExceedsProfitError struct {
	Total     decimal.Decimal
	Available decimal.Decimal
}

// Error implements the error interface
func (e *CommissionExceedsProfitError) Error() string {
	return fmt.Sprintf("Commission total %s exceeds available margin %s", e.Total.String(), e.Available.String())
}

// Unwrap exposes the domain error so handlers map it like any other
func (e *CommissionExceedsProfitError) Unwrap() error {
	return shared.NewDomainError(ErrCommissionExceedsProfit.Code, e.Error())
}

// ValidateCommissionStructure checks level bounds, uniqueness, non-negative
// amounts and that a positive per-unit total fits within the profit margin.
func ValidateCommissionStructure(entries []CommissionEntry, price, cost decimal.Decimal) error {
	if len(entries) > MaxCommissionLevels {
		return shared.NewDomainError(ErrInvalidCommissionStructure.Code,
			fmt.Sprintf("Commission structure cannot have more than %d levels", MaxCommissionLevels))
	}

	seen := make(map[int]struct{}, len(entries))
	total := decimal.Zero
	for _, e := range entries {
		if e.Level < MinCommissionLevel || e.Level > MaxCommissionLevels {
			return shared.NewDomainError(ErrInvalidCommissionStructure.Code,
				fmt.Sprintf("Commission level %d is outside %d..%d", e.Level, MinCommissionLevel, MaxCommissionLevels))
		}
		if _, dup := seen[e.Level]; dup {
			return shared.NewDomainError(ErrInvalidCommissionStructure.Code,
				fmt.Sprintf("Commission level %d appears more than once", e.Level))
		}
		seen[e.Level] = struct{}{}
		if e.Amount.IsNegative() {
			return shared.NewDomainError(ErrInvalidCommissionStructure.Code,
				fmt.Sprintf("Commission amount for level %d cannot be negative", e.Level))
		}
		total = total.Add(e.Amount)
	}

	// price below cost is allowed; it only leaves no room for commission
	available := price.Sub(cost)
	if total.IsPositive() && total.GreaterThan(available) {
		return &CommissionExceedsProfitError{Total: total, Available: available}
	}
	return nil
}

// CommissionTable is a resolved, level-ordered commission structure
type CommissionTable struct {
	entries []CommissionEntry
}

// NewCommissionTable sorts entries ascending by level and drops zero amounts
func NewCommissionTable(entries []CommissionEntry) CommissionTable {
	sorted := make([]CommissionEntry, 0, len(entries))
	for _, e := range entries {
		if e.Amount.IsPositive() {
			sorted = append(sorted, e)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	return CommissionTable{entries: sorted}
}

// Entries returns the paying levels in ascending order
func (t CommissionTable) Entries() []CommissionEntry {
	out := make([]CommissionEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// MaxLevel returns the deepest paying level, or 0 for an empty table
func (t CommissionTable) MaxLevel() int {
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1].Level
}

// AmountAt returns the per-unit amount for a level, zero when absent
func (t CommissionTable) AmountAt(level int) (decimal.Decimal, bool) {
	for _, e := range t.entries {
		if e.Level == level {
			return e.Amount, true
		}
	}
	return decimal.Zero, false
}

// IsEmpty reports whether no level pays anything
func (t CommissionTable) IsEmpty() bool {
	return len(t.entries) == 0
}

// TotalPerUnit is the sum paid across all levels for one unit
func (t CommissionTable) TotalPerUnit() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Resolve returns the product's commission table ordered by level
func Resolve(p *Product) CommissionTable {
	return NewCommissionTable(p.CommissionStructure)
}
