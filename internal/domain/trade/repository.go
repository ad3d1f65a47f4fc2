package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByBuyer lists a member's orders, newest first
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// Save inserts a new order
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error
}
