package network

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"go.uber.org/zap"
)

// TreeQueryService answers read-only upline and downline queries
type TreeQueryService struct {
	memberRepo   member.MemberRepository
	maxTreeDepth int
	logger       *zap.Logger
}

// NewTreeQueryService creates a new TreeQueryService
func NewTreeQueryService(memberRepo member.MemberRepository, maxTreeDepth int, logger *zap.Logger) *TreeQueryService {
	if maxTreeDepth < 1 {
		maxTreeDepth = 6
	}
	return &TreeQueryService{
		memberRepo:   memberRepo,
		maxTreeDepth: maxTreeDepth,
		logger:       logger,
	}
}

// GetAncestryChain returns the member's ancestors, nearest first, up to the root
func (s *TreeQueryService) GetAncestryChain(ctx context.Context, memberID uuid.UUID) (*AncestryResponse, error) {
	m, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	ancestors, err := member.WalkAncestors(ctx, s.memberRepo, m, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(ancestors))
	for i, a := range ancestors {
		ids[i] = a.ID
	}
	return &AncestryResponse{MemberID: memberID, Ancestors: ids}, nil
}

// GetDescendantTree returns a snapshot of the subtree rooted at the member.
// depth is clamped to 1..maxTreeDepth; zero means the maximum.
func (s *TreeQueryService) GetDescendantTree(ctx context.Context, memberID uuid.UUID, depth int) (*TreeNode, error) {
	depth = s.clampDepth(depth)

	root, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	rootNode := newTreeNode(root, 0)
	nodes := map[uuid.UUID]*TreeNode{root.ID: rootNode}
	level := []*member.Member{root}

	for d := 0; d < depth && len(level) > 0; d++ {
		ids := make([]uuid.UUID, 0, len(level)*2)
		for _, m := range level {
			ids = append(ids, m.ChildIDs()...)
		}
		if len(ids) == 0 {
			break
		}
		children, err := s.memberRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load tree level %d: %w", d+1, err)
		}
		children = orderByIDs(children, ids)

		for _, child := range children {
			nodes[child.ID] = newTreeNode(child, d+1)
		}
		for _, m := range level {
			parent := nodes[m.ID]
			if m.LeftChild != nil {
				parent.Left = nodes[*m.LeftChild]
			}
			if m.RightChild != nil {
				parent.Right = nodes[*m.RightChild]
			}
		}
		level = children
	}

	for _, m := range level {
		if m.HasChildren() {
			nodes[m.ID].Truncated = true
		}
	}
	return rootNode, nil
}

// GetDownlineStats counts descendants per level below the member
func (s *TreeQueryService) GetDownlineStats(ctx context.Context, memberID uuid.UUID, depth int) (*DownlineStats, error) {
	depth = s.clampDepth(depth)

	root, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	stats := &DownlineStats{MemberID: memberID, Levels: make([]LevelCount, 0, depth)}
	ids := root.ChildIDs()
	for lvl := 1; lvl <= depth && len(ids) > 0; lvl++ {
		children, err := s.memberRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load tree level %d: %w", lvl, err)
		}
		stats.Levels = append(stats.Levels, LevelCount{
			Level:    lvl,
			Count:    len(children),
			Capacity: int64(1) << uint(lvl),
		})
		stats.Total += len(children)

		next := make([]uuid.UUID, 0, len(children)*2)
		for _, c := range children {
			next = append(next, c.ChildIDs()...)
		}
		ids = next
	}
	return stats, nil
}

func (s *TreeQueryService) clampDepth(depth int) int {
	if depth < 1 || depth > s.maxTreeDepth {
		return s.maxTreeDepth
	}
	return depth
}

func newTreeNode(m *member.Member, depth int) *TreeNode {
	return &TreeNode{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Role:        string(m.Role),
		Depth:       depth,
	}
}
