package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// ProductRepository defines persistence for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	FindByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID, filter shared.Filter) ([]Product, int64, error)
	Save(ctx context.Context, p *Product) error
	// SaveWithLock updates an existing product guarded by its version
	SaveWithLock(ctx context.Context, p *Product) error
}
