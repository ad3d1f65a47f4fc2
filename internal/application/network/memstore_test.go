package network

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// memTreeStore is a mutex-guarded in-memory member store with the same
// compare-and-set semantics as the gorm tree repository
type memTreeStore struct {
	mu      sync.Mutex
	members map[uuid.UUID]*member.Member
	// beforeClaim runs inside ClaimChildSlot before the slot is checked
	beforeClaim func(s *memTreeStore, parentID uuid.UUID, slot member.TreeSlot)
}

func newMemTreeStore() *memTreeStore {
	return &memTreeStore{members: make(map[uuid.UUID]*member.Member)}
}

func (s *memTreeStore) scope() txn.TransactionScope {
	return txn.NewNoOpTransactionScope(txn.Repositories{Members: s, Tree: s})
}

func clone(m *member.Member) *member.Member {
	cp := *m
	cp.ClearDomainEvents()
	return &cp
}

func (s *memTreeStore) FindByID(_ context.Context, id uuid.UUID) (*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clone(m), nil
}

func (s *memTreeStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*member.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (s *memTreeStore) FindByReferralCode(_ context.Context, code string) (*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.ReferralCode != "" && m.ReferralCode == code {
			return clone(m), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memTreeStore) FindAll(_ context.Context, _ shared.Filter) ([]member.Member, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]member.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, *clone(m))
	}
	return out, int64(len(out)), nil
}

func (s *memTreeStore) CountByAccount(_ context.Context, accountID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.members {
		if m.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (s *memTreeStore) ExistsByReferralCode(ctx context.Context, code string) (bool, error) {
	_, err := s.FindByReferralCode(ctx, code)
	return err == nil, nil
}

func (s *memTreeStore) Save(_ context.Context, m *member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = clone(m)
	return nil
}

func (s *memTreeStore) SaveWithLock(_ context.Context, m *member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.members[m.ID]
	if !ok {
		return shared.ErrNotFound
	}
	cp := clone(m)
	cp.ReferredBy = stored.ReferredBy
	cp.LeftChild = stored.LeftChild
	cp.RightChild = stored.RightChild
	cp.PlacedAt = stored.PlacedAt
	s.members[m.ID] = cp
	return nil
}

func (s *memTreeStore) ClaimChildSlot(_ context.Context, parentID uuid.UUID, slot member.TreeSlot, childID uuid.UUID) (bool, error) {
	if s.beforeClaim != nil {
		s.beforeClaim(s, parentID, slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.members[parentID]
	if !ok || parent.ChildAt(slot) != nil {
		return false, nil
	}
	id := childID
	if slot == member.SlotLeft {
		parent.LeftChild = &id
	} else {
		parent.RightChild = &id
	}
	return true, nil
}

func (s *memTreeStore) AssignParent(_ context.Context, childID, parentID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	child, ok := s.members[childID]
	if !ok || child.ReferredBy != nil || child.HasChildren() {
		return false, nil
	}
	pid := parentID
	now := time.Now()
	child.ReferredBy = &pid
	child.PlacedAt = &now
	return true, nil
}

// attach links child under parent directly, bypassing placement
func (s *memTreeStore) attach(parentID uuid.UUID, slot member.TreeSlot, childID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := s.members[parentID]
	child := s.members[childID]
	cid, pid := childID, parentID
	if slot == member.SlotLeft {
		parent.LeftChild = &cid
	} else {
		parent.RightChild = &cid
	}
	child.ReferredBy = &pid
}

func (s *memTreeStore) get(id uuid.UUID) *member.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.members[id])
}
