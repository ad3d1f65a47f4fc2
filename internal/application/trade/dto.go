package trade

import (
	"time"

	"github.com/google/uuid"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
	"github.com/mlmshop/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to buy a product
type CreateOrderRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// PayOrderRequest confirms payment captured by the payment provider
type PayOrderRequest struct {
	PaymentRef string `json:"payment_ref" binding:"max=100"`
}

// RefundOrderRequest represents a request to refund a completed order
type RefundOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// OrderListFilter pages through a buyer's orders
type OrderListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PAID COMPLETED REFUNDED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderNumber  string          `json:"order_number"`
	BuyerID      uuid.UUID       `json:"buyer_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	RewardPoints int64           `json:"reward_points"`
	Status       string          `json:"status"`
	PaymentRef   string          `json:"payment_ref,omitempty"`
	RefundReason string          `json:"refund_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	RefundedAt   *time.Time      `json:"refunded_at,omitempty"`
	Version      int             `json:"version"`
}

// CompleteOrderResult is the completed order and its commission distribution
type CompleteOrderResult struct {
	Order        OrderResponse                     `json:"order"`
	Distribution *commissionapp.DistributionResult `json:"distribution"`
}

// RefundOrderResult is the refunded order and the commissions it cancelled
type RefundOrderResult struct {
	Order       OrderResponse                    `json:"order"`
	Commissions *commissionapp.CancelOrderResult `json:"commissions"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		BuyerID:      o.BuyerID,
		ProductID:    o.ProductID,
		ProductName:  o.ProductName,
		Quantity:     o.Quantity,
		UnitPrice:    o.UnitPrice,
		TotalAmount:  o.TotalAmount,
		RewardPoints: o.RewardPoints,
		Status:       string(o.Status),
		PaymentRef:   o.PaymentRef,
		RefundReason: o.RefundReason,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		PaidAt:       o.PaidAt,
		CompletedAt:  o.CompletedAt,
		RefundedAt:   o.RefundedAt,
		Version:      o.Version,
	}
}
