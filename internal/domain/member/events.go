package member

import (
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// AggregateTypeMember is the aggregate type for member events
const AggregateTypeMember = "Member"

// Event type constants
const (
	EventTypeMemberRegistered = "MemberRegistered"
	EventTypeMemberPlaced     = "MemberPlaced"
	EventTypeMemberActivated  = "MemberActivated"
)

// MemberRegisteredEvent is published when a new profile is created
type MemberRegisteredEvent struct {
	shared.BaseDomainEvent
	MemberID  uuid.UUID `json:"member_id"`
	AccountID uuid.UUID `json:"account_id"`
	Role      Role      `json:"role"`
}

// NewMemberRegisteredEvent creates a new MemberRegisteredEvent
func NewMemberRegisteredEvent(m *Member) *MemberRegisteredEvent {
	return &MemberRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMemberRegistered, AggregateTypeMember, m.ID),
		MemberID:        m.ID,
		AccountID:       m.AccountID,
		Role:            m.Role,
	}
}

// MemberPlacedEvent is published when a member is attached under a parent
type MemberPlacedEvent struct {
	shared.BaseDomainEvent
	MemberID uuid.UUID `json:"member_id"`
	ParentID uuid.UUID `json:"parent_id"`
	Slot     TreeSlot  `json:"slot"`
}

// NewMemberPlacedEvent creates a new MemberPlacedEvent
func NewMemberPlacedEvent(m *Member, parentID uuid.UUID, slot TreeSlot) *MemberPlacedEvent {
	return &MemberPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMemberPlaced, AggregateTypeMember, m.ID),
		MemberID:        m.ID,
		ParentID:        parentID,
		Slot:            slot,
	}
}

// MemberActivatedEvent is published when a pending member is approved
type MemberActivatedEvent struct {
	shared.BaseDomainEvent
	MemberID uuid.UUID `json:"member_id"`
	Role     Role      `json:"role"`
}

// NewMemberActivatedEvent creates a new MemberActivatedEvent
func NewMemberActivatedEvent(m *Member) *MemberActivatedEvent {
	return &MemberActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMemberActivated, AggregateTypeMember, m.ID),
		MemberID:        m.ID,
		Role:            m.Role,
	}
}
