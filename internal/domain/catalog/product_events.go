package catalog

import (
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// AggregateTypeProduct is the aggregate type for product events
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated             = "ProductCreated"
	EventTypeCommissionStructureChanged = "CommissionStructureChanged"
)

// ProductCreatedEvent is published when a product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID `json:"product_id"`
	ShopkeeperID uuid.UUID `json:"shopkeeper_id"`
	Name         string    `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		ShopkeeperID:    p.ShopkeeperID,
		Name:            p.Name,
	}
}

// CommissionStructureChangedEvent is published when a new table is accepted
type CommissionStructureChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID         `json:"product_id"`
	Entries   []CommissionEntry `json:"entries"`
}

// NewCommissionStructureChangedEvent creates a new CommissionStructureChangedEvent
func NewCommissionStructureChangedEvent(p *Product) *CommissionStructureChangedEvent {
	return &CommissionStructureChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionStructureChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Entries:         p.CommissionStructure,
	}
}
