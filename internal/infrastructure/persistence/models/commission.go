package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/shopspring/decimal"
)

// CommissionRecordModel is the persistence model for a commission ledger entry.
// An order pays each level at most once.
type CommissionRecordModel struct {
	BaseModel
	BeneficiaryID uuid.UUID         `gorm:"type:uuid;not null;index"`
	FromMemberID  uuid.UUID         `gorm:"type:uuid;not null"`
	OrderID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_commission_order_level,priority:1"`
	ProductID     uuid.UUID         `gorm:"type:uuid;not null"`
	Level         int               `gorm:"not null;uniqueIndex:idx_commission_order_level,priority:2"`
	Quantity      int               `gorm:"not null"`
	UnitAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Amount        decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Status        commission.Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	CancelReason  string            `gorm:"type:varchar(255)"`
	PaidAt        *time.Time
	CancelledAt   *time.Time
}

// TableName returns the table name for GORM
func (CommissionRecordModel) TableName() string {
	return "commission_records"
}

// ToDomain converts the persistence model to a domain Record
func (m *CommissionRecordModel) ToDomain() *commission.Record {
	return &commission.Record{
		BaseEntity:    m.BaseModel.ToDomain(),
		BeneficiaryID: m.BeneficiaryID,
		FromMemberID:  m.FromMemberID,
		OrderID:       m.OrderID,
		ProductID:     m.ProductID,
		Level:         m.Level,
		Quantity:      m.Quantity,
		UnitAmount:    m.UnitAmount,
		Amount:        m.Amount,
		Status:        m.Status,
		CancelReason:  m.CancelReason,
		PaidAt:        m.PaidAt,
		CancelledAt:   m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain Record
func (m *CommissionRecordModel) FromDomain(r *commission.Record) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.BeneficiaryID = r.BeneficiaryID
	m.FromMemberID = r.FromMemberID
	m.OrderID = r.OrderID
	m.ProductID = r.ProductID
	m.Level = r.Level
	m.Quantity = r.Quantity
	m.UnitAmount = r.UnitAmount
	m.Amount = r.Amount
	m.Status = r.Status
	m.CancelReason = r.CancelReason
	m.PaidAt = r.PaidAt
	m.CancelledAt = r.CancelledAt
}

// CommissionDistributionModel is the per-order idempotency guard.
// The primary key on order_id makes a second distribution of the same order fail.
type CommissionDistributionModel struct {
	OrderID     uuid.UUID       `gorm:"type:uuid;primary_key"`
	BuyerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    int             `gorm:"not null"`
	RecordCount int             `gorm:"not null;default:0"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommissionDistributionModel) TableName() string {
	return "commission_distributions"
}

// ToDomain converts the persistence model to a domain Distribution
func (m *CommissionDistributionModel) ToDomain() *commission.Distribution {
	return &commission.Distribution{
		OrderID:     m.OrderID,
		BuyerID:     m.BuyerID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		RecordCount: m.RecordCount,
		TotalAmount: m.TotalAmount,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Distribution
func (m *CommissionDistributionModel) FromDomain(d *commission.Distribution) {
	m.OrderID = d.OrderID
	m.BuyerID = d.BuyerID
	m.ProductID = d.ProductID
	m.Quantity = d.Quantity
	m.RecordCount = d.RecordCount
	m.TotalAmount = d.TotalAmount
	m.CreatedAt = d.CreatedAt
}

// WithdrawalModel is the persistence model for a withdrawal
type WithdrawalModel struct {
	BaseModel
	MemberID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reference string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (WithdrawalModel) TableName() string {
	return "withdrawals"
}

// ToDomain converts the persistence model to a domain Withdrawal
func (m *WithdrawalModel) ToDomain() *commission.Withdrawal {
	return &commission.Withdrawal{
		BaseEntity: m.BaseModel.ToDomain(),
		MemberID:   m.MemberID,
		Amount:     m.Amount,
		Reference:  m.Reference,
	}
}

// FromDomain populates the persistence model from a domain Withdrawal
func (m *WithdrawalModel) FromDomain(w *commission.Withdrawal) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.MemberID = w.MemberID
	m.Amount = w.Amount
	m.Reference = w.Reference
}
