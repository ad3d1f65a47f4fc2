package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all products matching the filter and returns the total count
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	return r.find(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter)
}

// FindByShopkeeper finds the products listed by a shopkeeper
func (r *GormProductRepository) FindByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	return r.find(
		r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("shopkeeper_id = ?", shopkeeperID),
		filter,
	)
}

// Save inserts a new product
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	model := models.ProductModelFromDomain(p)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProductRepository) SaveWithLock(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.ProductModel{}).
			Where("id = ?", p.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != p.Version {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The product has been modified by another request")
		}

		p.Version++
		p.UpdatedAt = time.Now()

		model := models.ProductModelFromDomain(p)
		result := tx.Model(&models.ProductModel{}).
			Where("id = ? AND version = ?", p.ID, currentVersion).
			Updates(map[string]interface{}{
				"name":                 model.Name,
				"description":          model.Description,
				"price":                model.Price,
				"cost":                 model.Cost,
				"commission_structure": model.CommissionStructure,
				"buyer_reward_points":  model.BuyerRewardPoints,
				"status":               model.Status,
				"version":              model.Version,
				"updated_at":           model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The product has been modified by another request")
		}
		return nil
	})
}

func (r *GormProductRepository) find(base *gorm.DB, filter shared.Filter) ([]catalog.Product, int64, error) {
	var total int64
	if err := r.applyFilterWithoutPagination(base.Session(&gorm.Session{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var productModels []models.ProductModel
	if err := r.applyFilter(base.Session(&gorm.Session{}), filter).
		Find(&productModels).Error; err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, total, nil
}

// applyFilter applies filter options to the query
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	sortField := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "shopkeeper_id":
			query = query.Where("shopkeeper_id = ?", value)
		}
	}

	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
