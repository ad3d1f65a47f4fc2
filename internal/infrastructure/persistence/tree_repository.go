package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTreeRepository implements TreeRepository with conditional updates.
// Every write succeeds only if the row is still in the state the caller saw,
// so two placements racing for the same slot cannot both win.
type GormTreeRepository struct {
	db *gorm.DB
}

// NewGormTreeRepository creates a new GormTreeRepository
func NewGormTreeRepository(db *gorm.DB) *GormTreeRepository {
	return &GormTreeRepository{db: db}
}

// ClaimChildSlot sets the parent's slot to childID if it is still empty
func (r *GormTreeRepository) ClaimChildSlot(ctx context.Context, parentID uuid.UUID, slot member.TreeSlot, childID uuid.UUID) (bool, error) {
	column, err := slotColumn(slot)
	if err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ? AND "+column+" IS NULL", parentID).
		Updates(map[string]interface{}{
			column:       childID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AssignParent links the child to its parent if the child is still an
// unplaced leaf
func (r *GormTreeRepository) AssignParent(ctx context.Context, childID, parentID uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ? AND referred_by IS NULL AND left_child IS NULL AND right_child IS NULL", childID).
		Updates(map[string]interface{}{
			"referred_by": parentID,
			"placed_at":   now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// slotColumn maps a slot to its column. The column name is concatenated into
// SQL so only the two known values are ever returned.
func slotColumn(slot member.TreeSlot) (string, error) {
	switch slot {
	case member.SlotLeft:
		return "left_child", nil
	case member.SlotRight:
		return "right_child", nil
	}
	return "", shared.NewDomainError("INVALID_SLOT", "Slot must be left or right")
}

// Ensure GormTreeRepository implements TreeRepository
var _ member.TreeRepository = (*GormTreeRepository)(nil)
