package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/shopspring/decimal"
)

// MemberModel is the persistence model for the Member aggregate.
// Tree links are written only by the conditional updates of the tree
// repository and earnings only by the guarded counter updates.
type MemberModel struct {
	AggregateModel
	AccountID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	DisplayName       string          `gorm:"type:varchar(100);not null"`
	Role              member.Role     `gorm:"type:varchar(20);not null;index"`
	ReferralCode      *string         `gorm:"type:varchar(20);uniqueIndex"`
	ReferredBy        *uuid.UUID      `gorm:"type:uuid;index"`
	LeftChild         *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	RightChild        *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	PlacedAt          *time.Time
	TotalPoints       int64           `gorm:"not null;default:0"`
	TotalEarnings     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PendingWithdrawal decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WithdrawnAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (MemberModel) TableName() string {
	return "members"
}

// ToDomain converts the persistence model to a domain Member
func (m *MemberModel) ToDomain() *member.Member {
	code := ""
	if m.ReferralCode != nil {
		code = *m.ReferralCode
	}
	return &member.Member{
		BaseAggregateRoot: m.ToAggregateRoot(),
		AccountID:         m.AccountID,
		DisplayName:       m.DisplayName,
		Role:              m.Role,
		ReferralCode:      code,
		ReferredBy:        m.ReferredBy,
		LeftChild:         m.LeftChild,
		RightChild:        m.RightChild,
		PlacedAt:          m.PlacedAt,
		TotalPoints:       m.TotalPoints,
		Earnings: member.Earnings{
			TotalEarnings:     m.TotalEarnings,
			PendingWithdrawal: m.PendingWithdrawal,
			WithdrawnAmount:   m.WithdrawnAmount,
		},
	}
}

// FromDomain populates the persistence model from a domain Member
func (m *MemberModel) FromDomain(mem *member.Member) {
	m.FromDomainAggregateRoot(mem.BaseAggregateRoot)
	m.AccountID = mem.AccountID
	m.DisplayName = mem.DisplayName
	m.Role = mem.Role
	m.ReferralCode = nil
	if mem.ReferralCode != "" {
		code := mem.ReferralCode
		m.ReferralCode = &code
	}
	m.ReferredBy = mem.ReferredBy
	m.LeftChild = mem.LeftChild
	m.RightChild = mem.RightChild
	m.PlacedAt = mem.PlacedAt
	m.TotalPoints = mem.TotalPoints
	m.TotalEarnings = mem.Earnings.TotalEarnings
	m.PendingWithdrawal = mem.Earnings.PendingWithdrawal
	m.WithdrawnAmount = mem.Earnings.WithdrawnAmount
}

// MemberModelFromDomain creates a new persistence model from a domain Member
func MemberModelFromDomain(mem *member.Member) *MemberModel {
	m := &MemberModel{}
	m.FromDomain(mem)
	return m
}
