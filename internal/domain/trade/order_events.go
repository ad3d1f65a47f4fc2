package trade

import (
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated   = "OrderCreated"
	EventTypeOrderPaid      = "OrderPaid"
	EventTypeOrderCompleted = "OrderCompleted"
	EventTypeOrderRefunded  = "OrderRefunded"
)

// OrderCreatedEvent is raised when a new order is placed
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		TotalAmount:     o.TotalAmount,
	}
}

// OrderPaidEvent is raised when payment is confirmed
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	PaymentRef string    `json:"payment_ref"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		PaymentRef:      o.PaymentRef,
	}
}

// OrderCompletedEvent is raised when an order completes.
// Commission distribution keys on OrderID.
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(o *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		BuyerID:         o.BuyerID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
	}
}

// OrderRefundedEvent is raised when a completed order is refunded
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(o *Order) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefunded, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Reason:          o.RefundReason,
	}
}
