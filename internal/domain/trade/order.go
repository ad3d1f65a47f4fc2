package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCompleted, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid
	case OrderStatusPaid:
		return target == OrderStatusCompleted
	case OrderStatusCompleted:
		return target == OrderStatusRefunded
	case OrderStatusRefunded:
		return false // Terminal state
	}
	return false
}

// Order is a single-product purchase by a member
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string
	BuyerID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
	// RewardPoints is what the buyer was credited at completion,
	// kept so a refund takes back exactly that much
	RewardPoints int64
	Status       OrderStatus
	PaymentRef   string
	RefundReason string
	PaidAt       *time.Time
	CompletedAt  *time.Time
	RefundedAt   *time.Time
}

// NewOrder creates a pending order
func NewOrder(buyerID, productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) (*Order, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuyerID:           buyerID,
		ProductID:         productID,
		ProductName:       strings.TrimSpace(productName),
		Quantity:          quantity,
		UnitPrice:         unitPrice,
		TotalAmount:       unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Status:            OrderStatusPending,
	}
	o.OrderNumber = generateOrderNumber(o.CreatedAt, o.ID)
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

func generateOrderNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

// MarkPaid records the payment confirmation
func (o *Order) MarkPaid(paymentRef string) error {
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = OrderStatusPaid
	o.PaymentRef = strings.TrimSpace(paymentRef)
	o.PaidAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// Complete marks the order completed and records the points credited to the buyer
func (o *Order) Complete(rewardPointsPerUnit int64) error {
	if !o.Status.CanTransitionTo(OrderStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	if rewardPointsPerUnit < 0 {
		rewardPointsPerUnit = 0
	}
	now := time.Now()
	o.Status = OrderStatusCompleted
	o.RewardPoints = rewardPointsPerUnit * int64(o.Quantity)
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCompletedEvent(o))
	return nil
}

// Refund moves a completed order to refunded
func (o *Order) Refund(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusRefunded) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund order in %s status", o.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Refund reason is required")
	}
	now := time.Now()
	o.Status = OrderStatusRefunded
	o.RefundReason = reason
	o.RefundedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderRefundedEvent(o))
	return nil
}

// IsCompleted returns true if the order is completed
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// IsTerminal returns true if the order can no longer change
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusRefunded
}
