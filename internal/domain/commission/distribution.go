package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Distribution marks an order as distributed. At most one exists per
// order, which makes a second distribution of the same order a no-op.
type Distribution struct {
	OrderID     uuid.UUID
	BuyerID     uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
	RecordCount int
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// NewDistribution creates the guard row for an order
func NewDistribution(orderID, buyerID, productID uuid.UUID, quantity int) *Distribution {
	return &Distribution{
		OrderID:     orderID,
		BuyerID:     buyerID,
		ProductID:   productID,
		Quantity:    quantity,
		TotalAmount: decimal.Zero,
		CreatedAt:   time.Now(),
	}
}

// Add accounts a created record in the summary
func (d *Distribution) Add(r *Record) {
	d.RecordCount++
	d.TotalAmount = d.TotalAmount.Add(r.Amount)
}
