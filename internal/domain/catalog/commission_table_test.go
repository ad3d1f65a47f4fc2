package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func entry(level int, amount string) CommissionEntry {
	return CommissionEntry{Level: level, Amount: dec(amount)}
}

func TestValidateCommissionStructure(t *testing.T) {
	price, cost := dec("100"), dec("60")

	t.Run("accepts structure within margin", func(t *testing.T) {
		err := ValidateCommissionStructure([]CommissionEntry{entry(1, "25"), entry(2, "15")}, price, cost)
		assert.NoError(t, err)
	})

	t.Run("accepts structure exactly at margin", func(t *testing.T) {
		err := ValidateCommissionStructure([]CommissionEntry{entry(1, "25"), entry(2, "15")}, price, cost)
		assert.NoError(t, err)
		err = ValidateCommissionStructure([]CommissionEntry{entry(1, "40")}, price, cost)
		assert.NoError(t, err)
	})

	t.Run("rejects total above margin with total and available", func(t *testing.T) {
		err := ValidateCommissionStructure([]CommissionEntry{entry(1, "30"), entry(2, "20")}, price, cost)
		require.Error(t, err)

		var exceeds *CommissionExceedsProfitError
		require.True(t, errors.As(err, &exceeds))
		assert.True(t, exceeds.Total.Equal(dec("50")))
		assert.True(t, exceeds.Available.Equal(dec("40")))
		assert.True(t, errors.Is(err, ErrCommissionExceedsProfit))

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "COMMISSION_EXCEEDS_PROFIT", de.Code)
	})

	t.Run("rejects level out of range", func(t *testing.T) {
		for _, level := range []int{0, 21, -3} {
			err := ValidateCommissionStructure([]CommissionEntry{entry(level, "1")}, price, cost)
			assert.ErrorIs(t, err, ErrInvalidCommissionStructure, "level %d", level)
		}
	})

	t.Run("rejects duplicate levels", func(t *testing.T) {
		err := ValidateCommissionStructure([]CommissionEntry{entry(3, "1"), entry(3, "2")}, price, cost)
		assert.ErrorIs(t, err, ErrInvalidCommissionStructure)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		err := ValidateCommissionStructure([]CommissionEntry{entry(1, "-1")}, price, cost)
		assert.ErrorIs(t, err, ErrInvalidCommissionStructure)
	})

	t.Run("rejects more than twenty entries", func(t *testing.T) {
		entries := make([]CommissionEntry, 0, 21)
		for i := 1; i <= 21; i++ {
			entries = append(entries, entry(i%20+1, "0"))
		}
		err := ValidateCommissionStructure(entries, price, cost)
		assert.ErrorIs(t, err, ErrInvalidCommissionStructure)
	})

	t.Run("accepts all twenty levels", func(t *testing.T) {
		entries := make([]CommissionEntry, 0, 20)
		for i := 1; i <= 20; i++ {
			entries = append(entries, entry(i, "2"))
		}
		assert.NoError(t, ValidateCommissionStructure(entries, price, cost))
	})

	t.Run("negative margin rejects any positive commission", func(t *testing.T) {
		err := ValidateCommissionStructure([]CommissionEntry{entry(1, "1")}, dec("50"), dec("60"))
		assert.ErrorIs(t, err, ErrCommissionExceedsProfit)
		assert.NoError(t, ValidateCommissionStructure(nil, dec("50"), dec("60")))
		assert.NoError(t, ValidateCommissionStructure([]CommissionEntry{entry(1, "0")}, dec("50"), dec("60")))
	})
}

func TestCommissionTable(t *testing.T) {
	table := NewCommissionTable([]CommissionEntry{entry(5, "3"), entry(1, "10"), entry(3, "0"), entry(2, "4")})

	entries := table.Entries()
	require.Len(t, entries, 3, "zero amounts are skipped")
	assert.Equal(t, []int{1, 2, 5}, []int{entries[0].Level, entries[1].Level, entries[2].Level})
	assert.Equal(t, 5, table.MaxLevel())
	assert.True(t, table.TotalPerUnit().Equal(dec("17")))

	amount, ok := table.AmountAt(2)
	assert.True(t, ok)
	assert.True(t, amount.Equal(dec("4")))

	_, ok = table.AmountAt(3)
	assert.False(t, ok)

	assert.True(t, NewCommissionTable(nil).IsEmpty())
	assert.Equal(t, 0, NewCommissionTable(nil).MaxLevel())
}

func TestProduct_SetCommissionStructure(t *testing.T) {
	newProduct := func(t *testing.T) *Product {
		p, err := NewProduct(uuid.New(), "Widget", dec("100"), dec("60"))
		require.NoError(t, err)
		return p
	}

	t.Run("stores structure sorted by level", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.SetCommissionStructure([]CommissionEntry{entry(2, "20"), entry(1, "15")}))

		require.Len(t, p.CommissionStructure, 2)
		assert.Equal(t, 1, p.CommissionStructure[0].Level)
		assert.True(t, p.TotalCommissionPerUnit().Equal(dec("35")))
		assert.Len(t, p.GetDomainEvents(), 2)
	})

	t.Run("rejected structure leaves stored one unchanged", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.SetCommissionStructure([]CommissionEntry{entry(1, "25"), entry(2, "15")}))
		events := len(p.GetDomainEvents())

		err := p.SetCommissionStructure([]CommissionEntry{entry(1, "30"), entry(2, "20")})
		assert.ErrorIs(t, err, ErrCommissionExceedsProfit)
		assert.Len(t, p.GetDomainEvents(), events)
		assert.True(t, p.CommissionStructure[0].Amount.Equal(dec("25")))
		assert.True(t, p.CommissionStructure[1].Amount.Equal(dec("15")))
	})

	t.Run("repricing must keep existing structure within margin", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.SetCommissionStructure([]CommissionEntry{entry(1, "30")}))

		err := p.SetPricing(dec("100"), dec("80"))
		assert.ErrorIs(t, err, ErrCommissionExceedsProfit)
		assert.True(t, p.Cost.Equal(dec("60")))

		require.NoError(t, p.SetPricing(dec("120"), dec("80")))
		assert.True(t, p.Margin().Equal(dec("40")))
	})

	t.Run("price below cost is allowed without commission", func(t *testing.T) {
		p := newProduct(t)

		require.NoError(t, p.SetPricing(dec("50"), dec("60")))
		assert.True(t, p.Margin().Equal(dec("-10")))

		err := p.SetCommissionStructure([]CommissionEntry{entry(1, "1")})
		assert.ErrorIs(t, err, ErrCommissionExceedsProfit)
		assert.Empty(t, p.CommissionStructure)
	})
}

func TestNewProduct(t *testing.T) {
	_, err := NewProduct(uuid.Nil, "x", dec("1"), dec("0"))
	assert.Error(t, err)
	_, err = NewProduct(uuid.New(), "", dec("1"), dec("0"))
	assert.Error(t, err)
	_, err = NewProduct(uuid.New(), "x", dec("-1"), dec("0"))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	p, err := NewProduct(uuid.New(), " Widget ", dec("10"), dec("4"))
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.True(t, p.IsActive())
	assert.Len(t, p.GetDomainEvents(), 1)
}
