package network

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/shopspring/decimal"
)

// RegisterRequest creates a new member profile
type RegisterRequest struct {
	AccountID    uuid.UUID `json:"account_id" binding:"required"`
	DisplayName  string    `json:"display_name" binding:"required,min=1,max=100"`
	Role         string    `json:"role" binding:"required,oneof=customer shopkeeper"`
	ReferralCode string    `json:"referral_code" binding:"omitempty,max=32"`
	InviteToken  string    `json:"invite_token"`
}

// PlaceRequest places an existing member under a referrer. Exactly one of
// ReferralCode or ReferrerID identifies the referrer.
type PlaceRequest struct {
	MemberID     uuid.UUID  `json:"-"`
	ReferralCode string     `json:"referral_code" binding:"omitempty,max=32"`
	ReferrerID   *uuid.UUID `json:"referrer_id"`
}

// ApproveRequest activates a pending member
type ApproveRequest struct {
	Role string `json:"role" binding:"required,oneof=customer shopkeeper"`
}

// PlacementResult describes where a member was attached
type PlacementResult struct {
	MemberID   uuid.UUID `json:"member_id"`
	ReferrerID uuid.UUID `json:"referrer_id"`
	ParentID   uuid.UUID `json:"parent_id"`
	Slot       string    `json:"slot"`
	// Depth is the parent's distance below the referrer
	Depth    int `json:"depth"`
	Attempts int `json:"attempts"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID                uuid.UUID       `json:"id"`
	AccountID         uuid.UUID       `json:"account_id"`
	DisplayName       string          `json:"display_name"`
	Role              string          `json:"role"`
	ReferralCode      string          `json:"referral_code,omitempty"`
	ReferredBy        *uuid.UUID      `json:"referred_by"`
	LeftChild         *uuid.UUID      `json:"left_child"`
	RightChild        *uuid.UUID      `json:"right_child"`
	PlacedAt          *time.Time      `json:"placed_at,omitempty"`
	TotalPoints       int64           `json:"total_points"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	PendingWithdrawal decimal.Decimal `json:"pending_withdrawal"`
	WithdrawnAmount   decimal.Decimal `json:"withdrawn_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// RegistrationResult is the outcome of Register
type RegistrationResult struct {
	Member    MemberResponse   `json:"member"`
	Placement *PlacementResult `json:"placement,omitempty"`
}

// TreeNode is one node of a descendant tree snapshot
type TreeNode struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Depth       int       `json:"depth"`
	Left        *TreeNode `json:"left,omitempty"`
	Right       *TreeNode `json:"right,omitempty"`
	// Truncated is set when the node has children below the requested depth
	Truncated bool `json:"truncated,omitempty"`
}

// AncestryResponse lists ancestors nearest first
type AncestryResponse struct {
	MemberID  uuid.UUID   `json:"member_id"`
	Ancestors []uuid.UUID `json:"ancestors"`
}

// LevelCount is the number of descendants at one depth
type LevelCount struct {
	Level    int   `json:"level"`
	Count    int   `json:"count"`
	Capacity int64 `json:"capacity"`
}

// DownlineStats summarizes a member's downline per level
type DownlineStats struct {
	MemberID uuid.UUID    `json:"member_id"`
	Levels   []LevelCount `json:"levels"`
	Total    int          `json:"total"`
}

// ToMemberResponse converts a domain Member to MemberResponse
func ToMemberResponse(m *member.Member) MemberResponse {
	return MemberResponse{
		ID:                m.ID,
		AccountID:         m.AccountID,
		DisplayName:       m.DisplayName,
		Role:              string(m.Role),
		ReferralCode:      m.ReferralCode,
		ReferredBy:        m.ReferredBy,
		LeftChild:         m.LeftChild,
		RightChild:        m.RightChild,
		PlacedAt:          m.PlacedAt,
		TotalPoints:       m.TotalPoints,
		TotalEarnings:     m.Earnings.TotalEarnings,
		PendingWithdrawal: m.Earnings.PendingWithdrawal,
		WithdrawnAmount:   m.Earnings.WithdrawnAmount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Version:           m.Version,
	}
}
