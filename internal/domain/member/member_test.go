package member

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMember(t *testing.T, role Role) *Member {
	t.Helper()
	m, err := NewMember(uuid.New(), "Test Member", role)
	require.NoError(t, err)
	return m
}

func TestNewMember(t *testing.T) {
	t.Run("creates member with zero earnings and registered event", func(t *testing.T) {
		m := newTestMember(t, RoleCustomer)

		assert.Equal(t, RoleCustomer, m.Role)
		assert.Equal(t, 1, m.Version)
		assert.Nil(t, m.ReferredBy)
		assert.NoError(t, m.Earnings.Validate())
		require.Len(t, m.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeMemberRegistered, m.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewMember(uuid.Nil, "x", RoleCustomer)
		assert.Error(t, err)
		_, err = NewMember(uuid.New(), "   ", RoleCustomer)
		assert.Error(t, err)
		_, err = NewMember(uuid.New(), "x", Role("admin"))
		assert.Error(t, err)
	})
}

func TestMember_FreeSlot(t *testing.T) {
	m := newTestMember(t, RoleCustomer)

	slot, ok := m.FreeSlot()
	assert.True(t, ok)
	assert.Equal(t, SlotLeft, slot)

	require.NoError(t, m.AttachChild(SlotLeft, uuid.New()))
	slot, ok = m.FreeSlot()
	assert.True(t, ok)
	assert.Equal(t, SlotRight, slot)

	require.NoError(t, m.AttachChild(SlotRight, uuid.New()))
	_, ok = m.FreeSlot()
	assert.False(t, ok)
	assert.Len(t, m.ChildIDs(), 2)

	t.Run("occupied slot cannot be attached twice", func(t *testing.T) {
		err := m.AttachChild(SlotLeft, uuid.New())
		assert.Error(t, err)
	})
}

func TestMember_CheckPlaceable(t *testing.T) {
	t.Run("customer without parent is placeable", func(t *testing.T) {
		assert.NoError(t, newTestMember(t, RoleCustomer).CheckPlaceable())
	})

	t.Run("pending member is rejected", func(t *testing.T) {
		assert.ErrorIs(t, newTestMember(t, RolePending).CheckPlaceable(), ErrMemberPending)
	})

	t.Run("shopkeeper never occupies a slot", func(t *testing.T) {
		assert.ErrorIs(t, newTestMember(t, RoleShopkeeper).CheckPlaceable(), ErrNotPlaceable)
	})

	t.Run("placed member cannot be placed again", func(t *testing.T) {
		m := newTestMember(t, RoleCustomer)
		require.NoError(t, m.MarkPlaced(uuid.New(), SlotLeft))
		assert.ErrorIs(t, m.CheckPlaceable(), ErrAlreadyPlaced)
		assert.ErrorIs(t, m.MarkPlaced(uuid.New(), SlotLeft), ErrAlreadyPlaced)
	})

	t.Run("root with downline stays a root", func(t *testing.T) {
		m := newTestMember(t, RoleCustomer)
		require.NoError(t, m.AttachChild(SlotLeft, uuid.New()))
		assert.ErrorIs(t, m.CheckPlaceable(), ErrNotPlaceable)
	})
}

func TestMember_MarkPlaced(t *testing.T) {
	m := newTestMember(t, RoleCustomer)
	m.ClearDomainEvents()
	parent := uuid.New()

	require.NoError(t, m.MarkPlaced(parent, SlotRight))

	assert.Equal(t, parent, *m.ReferredBy)
	assert.NotNil(t, m.PlacedAt)
	require.Len(t, m.GetDomainEvents(), 1)
	ev, ok := m.GetDomainEvents()[0].(*MemberPlacedEvent)
	require.True(t, ok)
	assert.Equal(t, SlotRight, ev.Slot)
	assert.Equal(t, parent, ev.ParentID)

	t.Run("cannot be its own parent", func(t *testing.T) {
		other := newTestMember(t, RoleCustomer)
		assert.ErrorIs(t, other.MarkPlaced(other.ID, SlotLeft), ErrInvalidReferralCode)
	})
}

func TestMember_Activate(t *testing.T) {
	m := newTestMember(t, RolePending)
	assert.False(t, m.CanTransact())

	require.NoError(t, m.Activate(RoleShopkeeper))
	assert.Equal(t, RoleShopkeeper, m.Role)
	assert.True(t, m.CanTransact())

	assert.Error(t, m.Activate(RoleCustomer), "already active")
	assert.Error(t, newTestMember(t, RolePending).Activate(RolePending))
}

func TestReferralCode(t *testing.T) {
	t.Run("generated codes are valid and distinct", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			code, err := GenerateReferralCode()
			require.NoError(t, err)
			normalized, err := NormalizeReferralCode(code)
			require.NoError(t, err)
			assert.Equal(t, code, normalized)
			seen[code] = true
		}
		assert.Greater(t, len(seen), 45)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		code, err := NormalizeReferralCode("  abcd-42 ")
		require.NoError(t, err)
		assert.Equal(t, "ABCD-42", code)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		_, err := NormalizeReferralCode("ab")
		assert.True(t, errors.Is(err, ErrInvalidReferralCode))
		_, err = NormalizeReferralCode("abc$def")
		assert.True(t, errors.Is(err, ErrInvalidReferralCode))
	})

	t.Run("assigns once", func(t *testing.T) {
		m := newTestMember(t, RoleCustomer)
		require.NoError(t, m.AssignReferralCode("ref-001"))
		assert.Equal(t, "REF-001", m.ReferralCode)
		assert.True(t, m.CanRefer())
		assert.Error(t, m.AssignReferralCode("ref-002"))
	})
}
