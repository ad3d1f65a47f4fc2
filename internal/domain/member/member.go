package member

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// Role is the closed set of member roles
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleShopkeeper Role = "shopkeeper"
	RolePending    Role = "pending"
)

// IsValid checks if the role is a known value
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleShopkeeper, RolePending:
		return true
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// TreeSlot identifies one of the two child positions of a tree node
type TreeSlot string

const (
	SlotLeft  TreeSlot = "left"
	SlotRight TreeSlot = "right"
)

// IsValid checks if the slot is left or right
func (s TreeSlot) IsValid() bool {
	return s == SlotLeft || s == SlotRight
}

// Member is one user profile. It is both an identity record and a node of
// the binary referral tree. Tree links are ids, never object pointers.
type Member struct {
	shared.BaseAggregateRoot
	AccountID    uuid.UUID
	DisplayName  string
	Role         Role
	ReferralCode string
	ReferredBy   *uuid.UUID
	LeftChild    *uuid.UUID
	RightChild   *uuid.UUID
	PlacedAt     *time.Time
	TotalPoints  int64
	Earnings     Earnings
}

// NewMember creates a new member profile
func NewMember(accountID uuid.UUID, displayName string, role Role) (*Member, error) {
	displayName = strings.TrimSpace(displayName)
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if displayName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Display name cannot be empty")
	}
	if len(displayName) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Display name cannot exceed 100 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be customer, shopkeeper or pending")
	}

	m := &Member{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		DisplayName:       displayName,
		Role:              role,
		Earnings:          ZeroEarnings(),
	}
	m.AddDomainEvent(NewMemberRegisteredEvent(m))
	return m, nil
}

// IsPending reports whether the member still awaits approval
func (m *Member) IsPending() bool {
	return m.Role == RolePending
}

// CanTransact reports whether the member may buy and earn
func (m *Member) CanTransact() bool {
	return m.Role == RoleCustomer || m.Role == RoleShopkeeper
}

// CanRefer reports whether the member's referral code may recruit
func (m *Member) CanRefer() bool {
	return m.Role == RoleCustomer && m.ReferralCode != ""
}

// IsPlaced reports whether the member has a parent in the tree
func (m *Member) IsPlaced() bool {
	return m.ReferredBy != nil
}

// HasChildren reports whether any slot is occupied
func (m *Member) HasChildren() bool {
	return m.LeftChild != nil || m.RightChild != nil
}

// CheckPlaceable returns nil when the member may be attached under a parent.
// Only customers occupy tree slots, and a member who already heads a
// downline stays a root so ancestry can never form a cycle.
func (m *Member) CheckPlaceable() error {
	switch {
	case m.IsPending():
		return ErrMemberPending
	case m.Role != RoleCustomer:
		return ErrNotPlaceable
	case m.IsPlaced():
		return ErrAlreadyPlaced
	case m.HasChildren():
		return shared.NewDomainError(ErrNotPlaceable.Code, "Member already has a downline and cannot be re-parented")
	}
	return nil
}

// FreeSlot returns the first free child slot, left before right
func (m *Member) FreeSlot() (TreeSlot, bool) {
	if m.LeftChild == nil {
		return SlotLeft, true
	}
	if m.RightChild == nil {
		return SlotRight, true
	}
	return "", false
}

// ChildIDs returns the occupied child ids in left, right order
func (m *Member) ChildIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if m.LeftChild != nil {
		ids = append(ids, *m.LeftChild)
	}
	if m.RightChild != nil {
		ids = append(ids, *m.RightChild)
	}
	return ids
}

// ChildAt returns the child in the given slot
func (m *Member) ChildAt(slot TreeSlot) *uuid.UUID {
	if slot == SlotLeft {
		return m.LeftChild
	}
	return m.RightChild
}

// AttachChild fills a free slot with childID
func (m *Member) AttachChild(slot TreeSlot, childID uuid.UUID) error {
	if !slot.IsValid() {
		return shared.NewDomainError("INVALID_SLOT", "Slot must be left or right")
	}
	if m.ChildAt(slot) != nil {
		return shared.NewDomainError("SLOT_OCCUPIED", "Tree slot is already occupied")
	}
	id := childID
	if slot == SlotLeft {
		m.LeftChild = &id
	} else {
		m.RightChild = &id
	}
	m.Touch()
	return nil
}

// MarkPlaced records the parent link once placement has been claimed
func (m *Member) MarkPlaced(parentID uuid.UUID, slot TreeSlot) error {
	if err := m.CheckPlaceable(); err != nil {
		return err
	}
	if parentID == m.ID {
		return ErrInvalidReferralCode
	}
	pid := parentID
	now := time.Now()
	m.ReferredBy = &pid
	m.PlacedAt = &now
	m.Touch()
	m.AddDomainEvent(NewMemberPlacedEvent(m, parentID, slot))
	return nil
}

// Activate moves a pending member to an active role
func (m *Member) Activate(role Role) error {
	if !m.IsPending() {
		return shared.NewDomainError("INVALID_STATE", "Only pending members can be activated")
	}
	if role != RoleCustomer && role != RoleShopkeeper {
		return shared.NewDomainError("INVALID_ROLE", "Members can only be activated as customer or shopkeeper")
	}
	m.Role = role
	m.Touch()
	m.AddDomainEvent(NewMemberActivatedEvent(m))
	return nil
}

// AssignReferralCode sets the member's referral code once
func (m *Member) AssignReferralCode(code string) error {
	if m.ReferralCode != "" {
		return shared.NewDomainError("INVALID_STATE", "Referral code is already assigned")
	}
	normalized, err := NormalizeReferralCode(code)
	if err != nil {
		return err
	}
	m.ReferralCode = normalized
	m.Touch()
	return nil
}

// Rename updates the display name
func (m *Member) Rename(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Display name must be 1-100 characters")
	}
	m.DisplayName = displayName
	m.Touch()
	return nil
}
