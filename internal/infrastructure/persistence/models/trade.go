package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	OrderNumber  string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	BuyerID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName  string            `gorm:"type:varchar(200);not null"`
	Quantity     int               `gorm:"not null"`
	UnitPrice    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	TotalAmount  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	RewardPoints int64             `gorm:"not null;default:0"`
	Status       trade.OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentRef   string            `gorm:"type:varchar(100)"`
	RefundReason string            `gorm:"type:varchar(255)"`
	PaidAt       *time.Time
	CompletedAt  *time.Time
	RefundedAt   *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		BuyerID:           m.BuyerID,
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		TotalAmount:       m.TotalAmount,
		RewardPoints:      m.RewardPoints,
		Status:            m.Status,
		PaymentRef:        m.PaymentRef,
		RefundReason:      m.RefundReason,
		PaidAt:            m.PaidAt,
		CompletedAt:       m.CompletedAt,
		RefundedAt:        m.RefundedAt,
	}
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.BuyerID = o.BuyerID
	m.ProductID = o.ProductID
	m.ProductName = o.ProductName
	m.Quantity = o.Quantity
	m.UnitPrice = o.UnitPrice
	m.TotalAmount = o.TotalAmount
	m.RewardPoints = o.RewardPoints
	m.Status = o.Status
	m.PaymentRef = o.PaymentRef
	m.RefundReason = o.RefundReason
	m.PaidAt = o.PaidAt
	m.CompletedAt = o.CompletedAt
	m.RefundedAt = o.RefundedAt
}
