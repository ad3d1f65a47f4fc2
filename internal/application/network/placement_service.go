package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// errSlotTaken signals a lost compare-and-set on the chosen slot
var errSlotTaken = errors.New("placement slot already claimed")

// PlacementConfig bounds the level-order search and the claim retries
type PlacementConfig struct {
	MaxDepth   int
	MaxRetries int
}

// DefaultPlacementConfig returns the default placement bounds
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		MaxDepth:   64,
		MaxRetries: 5,
	}
}

// PlacementService inserts members into the binary referral tree
type PlacementService struct {
	memberRepo     member.MemberRepository
	txScope        txn.TransactionScope
	eventPublisher shared.EventPublisher
	cfg            PlacementConfig
	logger         *zap.Logger
}

// NewPlacementService creates a new PlacementService
func NewPlacementService(
	memberRepo member.MemberRepository,
	txScope txn.TransactionScope,
	cfg PlacementConfig,
	logger *zap.Logger,
) *PlacementService {
	if cfg.MaxDepth < 1 {
		cfg.MaxDepth = DefaultPlacementConfig().MaxDepth
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultPlacementConfig().MaxRetries
	}
	return &PlacementService{
		memberRepo: memberRepo,
		txScope:    txScope,
		cfg:        cfg,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for placement events
func (s *PlacementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Place attaches the member to the first free slot found by a
// level-order search below the referrer, left before right.
func (s *PlacementService) Place(ctx context.Context, req PlaceRequest) (*PlacementResult, error) {
	m, err := s.memberRepo.FindByID(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if err := m.CheckPlaceable(); err != nil {
		return nil, err
	}

	referrer, err := s.resolveReferrer(ctx, req)
	if err != nil {
		return nil, err
	}
	if referrer.ID == m.ID {
		return nil, shared.NewDomainError(member.ErrInvalidReferralCode.Code, "A member cannot refer themselves")
	}

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			// the referrer's own slots may have changed since the last search
			if referrer, err = s.memberRepo.FindByID(ctx, referrer.ID); err != nil {
				return nil, err
			}
		}
		parent, slot, depth, err := s.findFreeSlot(ctx, referrer)
		if err != nil {
			return nil, err
		}

		err = s.claim(ctx, parent.ID, slot, m.ID)
		if errors.Is(err, errSlotTaken) {
			s.logger.Warn("placement slot claimed concurrently, retrying",
				zap.String("member_id", m.ID.String()),
				zap.String("parent_id", parent.ID.String()),
				zap.String("slot", string(slot)),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := m.MarkPlaced(parent.ID, slot); err != nil {
			s.logger.Error("placed member failed local state update, placement event not published",
				zap.String("member_id", m.ID.String()),
				zap.Error(err),
			)
		} else {
			s.publish(ctx, m)
		}

		s.logger.Info("member placed",
			zap.String("member_id", m.ID.String()),
			zap.String("referrer_id", referrer.ID.String()),
			zap.String("parent_id", parent.ID.String()),
			zap.String("slot", string(slot)),
			zap.Int("depth", depth),
			zap.Int("attempts", attempt),
		)
		return &PlacementResult{
			MemberID:   m.ID,
			ReferrerID: referrer.ID,
			ParentID:   parent.ID,
			Slot:       string(slot),
			Depth:      depth,
			Attempts:   attempt,
		}, nil
	}

	s.logger.Warn("placement contention retries exhausted",
		zap.String("member_id", m.ID.String()),
		zap.String("referrer_id", referrer.ID.String()),
		zap.Int("retries", s.cfg.MaxRetries),
	)
	return nil, member.ErrPlacementContention
}

// resolveReferrer finds the referrer by code or id. Only active customers refer.
func (s *PlacementService) resolveReferrer(ctx context.Context, req PlaceRequest) (*member.Member, error) {
	var (
		referrer *member.Member
		err      error
	)
	switch {
	case req.ReferrerID != nil:
		referrer, err = s.memberRepo.FindByID(ctx, *req.ReferrerID)
	case req.ReferralCode != "":
		code, normErr := member.NormalizeReferralCode(req.ReferralCode)
		if normErr != nil {
			return nil, member.ErrInvalidReferralCode
		}
		referrer, err = s.memberRepo.FindByReferralCode(ctx, code)
	default:
		return nil, member.ErrInvalidReferralCode
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, member.ErrInvalidReferralCode
		}
		return nil, err
	}
	if referrer.Role != member.RoleCustomer {
		return nil, member.ErrInvalidReferralCode
	}
	return referrer, nil
}

// findFreeSlot scans the subtree below root level by level and returns
// the first node with a free slot. Each level is loaded in one query.
func (s *PlacementService) findFreeSlot(ctx context.Context, root *member.Member) (*member.Member, member.TreeSlot, int, error) {
	level := []*member.Member{root}
	for depth := 0; depth < s.cfg.MaxDepth && len(level) > 0; depth++ {
		nextIDs := make([]uuid.UUID, 0, len(level)*2)
		for _, node := range level {
			if slot, ok := node.FreeSlot(); ok {
				return node, slot, depth, nil
			}
			nextIDs = append(nextIDs, node.ChildIDs()...)
		}

		children, err := s.memberRepo.FindByIDs(ctx, nextIDs)
		if err != nil {
			return nil, "", 0, fmt.Errorf("load tree level %d: %w", depth+1, err)
		}
		level = orderByIDs(children, nextIDs)
	}
	return nil, "", 0, member.ErrTreeFull
}

// claim sets parent.slot and child.referred_by in one transaction.
// Both updates are conditional, a lost race on either rolls back both.
func (s *PlacementService) claim(ctx context.Context, parentID uuid.UUID, slot member.TreeSlot, childID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		ok, err := repos.TreeRepo().ClaimChildSlot(ctx, parentID, slot, childID)
		if err != nil {
			return err
		}
		if !ok {
			return errSlotTaken
		}
		ok, err = repos.TreeRepo().AssignParent(ctx, childID, parentID)
		if err != nil {
			return err
		}
		if !ok {
			return member.ErrAlreadyPlaced
		}
		return nil
	})
}

func (s *PlacementService) publish(ctx context.Context, m *member.Member) {
	events := m.GetDomainEvents()
	m.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish member events", zap.Error(err))
	}
}

// orderByIDs returns members in the order of ids, skipping missing ones
func orderByIDs(members []*member.Member, ids []uuid.UUID) []*member.Member {
	byID := make(map[uuid.UUID]*member.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	out := make([]*member.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
