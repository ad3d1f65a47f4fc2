package member

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
)

// WalkAncestors follows ReferredBy upward from start and returns up to
// maxLevels ancestors, nearest first. maxLevels <= 0 walks to the root.
func WalkAncestors(ctx context.Context, repo MemberRepository, start *Member, maxLevels int) ([]*Member, error) {
	ancestors := make([]*Member, 0)
	visited := map[uuid.UUID]struct{}{start.ID: {}}

	current := start
	for current.ReferredBy != nil {
		if maxLevels > 0 && len(ancestors) >= maxLevels {
			break
		}
		parentID := *current.ReferredBy
		if _, seen := visited[parentID]; seen {
			return nil, shared.NewDomainError(ErrCorruptTree.Code,
				fmt.Sprintf("Member %s appears twice in the ancestry of %s", parentID, start.ID))
		}
		visited[parentID] = struct{}{}

		parent, err := repo.FindByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("load ancestor %s: %w", parentID, err)
		}
		ancestors = append(ancestors, parent)
		current = parent
	}
	return ancestors, nil
}
