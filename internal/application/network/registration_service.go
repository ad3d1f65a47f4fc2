package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxReferralCodeAttempts bounds retries on referral code collisions
const maxReferralCodeAttempts = 5

// InviteValidator checks shopkeeper invite tokens issued by an admin
type InviteValidator interface {
	ValidateInviteToken(token string) error
}

// RegistrationService creates member profiles and routes them to the
// placement path that matches their role
type RegistrationService struct {
	memberRepo         member.MemberRepository
	placement          *PlacementService
	invites            InviteValidator
	eventPublisher     shared.EventPublisher
	maxProfilesPerUser int
	logger             *zap.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	memberRepo member.MemberRepository,
	placement *PlacementService,
	invites InviteValidator,
	maxProfilesPerUser int,
	logger *zap.Logger,
) *RegistrationService {
	if maxProfilesPerUser < 1 {
		maxProfilesPerUser = 5
	}
	return &RegistrationService{
		memberRepo:         memberRepo,
		placement:          placement,
		invites:            invites,
		maxProfilesPerUser: maxProfilesPerUser,
		logger:             logger,
	}
}

// SetEventPublisher sets the publisher for member events
func (s *RegistrationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates a profile for the account.
//
// Customers get a referral code. With a referral code they are placed below
// the referrer, without one they become the root of their own tree.
// Shopkeepers never occupy tree slots: a valid invite activates them
// immediately, otherwise they wait as pending until an admin approves.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	count, err := s.memberRepo.CountByAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.maxProfilesPerUser) {
		return nil, shared.NewDomainError(member.ErrProfileLimitReached.Code,
			fmt.Sprintf("Account already holds %d profiles", count))
	}

	switch member.Role(req.Role) {
	case member.RoleCustomer:
		return s.registerCustomer(ctx, req)
	case member.RoleShopkeeper:
		return s.registerShopkeeper(ctx, req)
	default:
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be customer or shopkeeper")
	}
}

func (s *RegistrationService) registerCustomer(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	// Resolve the referrer up front so a bad code creates nothing
	if req.ReferralCode != "" {
		if _, err := s.placement.resolveReferrer(ctx, PlaceRequest{ReferralCode: req.ReferralCode}); err != nil {
			return nil, err
		}
	}

	m, err := member.NewMember(req.AccountID, req.DisplayName, member.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if err := s.assignUniqueReferralCode(ctx, m); err != nil {
		return nil, err
	}
	if err := s.memberRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)

	result := &RegistrationResult{Member: ToMemberResponse(m)}
	if req.ReferralCode == "" {
		s.logger.Info("customer registered as root",
			zap.String("member_id", m.ID.String()),
		)
		return result, nil
	}

	placement, err := s.placement.Place(ctx, PlaceRequest{MemberID: m.ID, ReferralCode: req.ReferralCode})
	if err != nil {
		// The profile exists unplaced; placement can be retried on its own
		s.logger.Warn("customer registered but not placed",
			zap.String("member_id", m.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	result.Placement = placement

	placed, err := s.memberRepo.FindByID(ctx, m.ID)
	if err == nil {
		result.Member = ToMemberResponse(placed)
	}
	return result, nil
}

func (s *RegistrationService) registerShopkeeper(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	role := member.RolePending
	if req.InviteToken != "" {
		if s.invites == nil {
			return nil, member.ErrInvalidInvite
		}
		if err := s.invites.ValidateInviteToken(req.InviteToken); err != nil {
			return nil, member.ErrInvalidInvite
		}
		role = member.RoleShopkeeper
	}

	m, err := member.NewMember(req.AccountID, req.DisplayName, role)
	if err != nil {
		return nil, err
	}
	if err := s.memberRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)

	s.logger.Info("shopkeeper registered",
		zap.String("member_id", m.ID.String()),
		zap.String("role", string(role)),
	)
	return &RegistrationResult{Member: ToMemberResponse(m)}, nil
}

// Approve activates a pending member. Approved customers receive a
// referral code and start as unreferred roots.
func (s *RegistrationService) Approve(ctx context.Context, memberID uuid.UUID, req ApproveRequest) (*MemberResponse, error) {
	m, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := m.Activate(member.Role(req.Role)); err != nil {
		return nil, err
	}
	if m.Role == member.RoleCustomer && m.ReferralCode == "" {
		if err := s.assignUniqueReferralCode(ctx, m); err != nil {
			return nil, err
		}
	}
	if err := s.memberRepo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)

	s.logger.Info("member approved",
		zap.String("member_id", m.ID.String()),
		zap.String("role", string(m.Role)),
	)
	resp := ToMemberResponse(m)
	return &resp, nil
}

// GetMember returns a member by id
func (s *RegistrationService) GetMember(ctx context.Context, memberID uuid.UUID) (*MemberResponse, error) {
	m, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	resp := ToMemberResponse(m)
	return &resp, nil
}

// ListMembers returns a page of members
func (s *RegistrationService) ListMembers(ctx context.Context, filter shared.Filter) (*shared.Paginated[MemberResponse], error) {
	members, total, err := s.memberRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]MemberResponse, len(members))
	for i := range members {
		items[i] = ToMemberResponse(&members[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

func (s *RegistrationService) assignUniqueReferralCode(ctx context.Context, m *member.Member) error {
	for i := 0; i < maxReferralCodeAttempts; i++ {
		code, err := member.GenerateReferralCode()
		if err != nil {
			return err
		}
		exists, err := s.memberRepo.ExistsByReferralCode(ctx, code)
		if err != nil {
			return err
		}
		if !exists {
			return m.AssignReferralCode(code)
		}
	}
	return errors.New("could not generate a unique referral code")
}

func (s *RegistrationService) publish(ctx context.Context, m *member.Member) {
	events := m.GetDomainEvents()
	m.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish member events", zap.Error(err))
	}
}
