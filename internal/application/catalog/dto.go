package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Actor identifies who is calling: a shopkeeper may only manage their own products
type Actor struct {
	MemberID uuid.UUID
	IsAdmin  bool
}

// CommissionEntryDTO is one level of a commission structure
type CommissionEntryDTO struct {
	Level  int             `json:"level" binding:"min=1,max=20"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name                string               `json:"name" binding:"required,min=1,max=200"`
	Description         string               `json:"description" binding:"max=2000"`
	Price               decimal.Decimal      `json:"price"`
	Cost                decimal.Decimal      `json:"cost"`
	BuyerRewardPoints   int64                `json:"buyer_reward_points" binding:"min=0"`
	CommissionStructure []CommissionEntryDTO `json:"commission_structure" binding:"max=20,dive"`
}

// UpdateProductRequest represents a request to update descriptive fields
type UpdateProductRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description       *string `json:"description" binding:"omitempty,max=2000"`
	BuyerRewardPoints *int64  `json:"buyer_reward_points" binding:"omitempty,min=0"`
	Active            *bool   `json:"active"`
}

// UpdatePricingRequest changes price and cost
type UpdatePricingRequest struct {
	Price decimal.Decimal `json:"price"`
	Cost  decimal.Decimal `json:"cost"`
}

// SetCommissionStructureRequest replaces the commission table
type SetCommissionStructureRequest struct {
	Entries []CommissionEntryDTO `json:"entries" binding:"max=20,dive"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                     uuid.UUID            `json:"id"`
	ShopkeeperID           uuid.UUID            `json:"shopkeeper_id"`
	Name                   string               `json:"name"`
	Description            string               `json:"description"`
	Price                  decimal.Decimal      `json:"price"`
	Cost                   decimal.Decimal      `json:"cost"`
	Margin                 decimal.Decimal      `json:"margin"`
	CommissionStructure    []CommissionEntryDTO `json:"commission_structure"`
	TotalCommissionPerUnit decimal.Decimal      `json:"total_commission_per_unit"`
	BuyerRewardPoints      int64                `json:"buyer_reward_points"`
	Status                 string               `json:"status"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
	Version                int                  `json:"version"`
}

// CommissionTableResponse is the resolved, level-ordered table of a product
type CommissionTableResponse struct {
	ProductID    uuid.UUID            `json:"product_id"`
	Entries      []CommissionEntryDTO `json:"entries"`
	MaxLevel     int                  `json:"max_level"`
	TotalPerUnit decimal.Decimal      `json:"total_per_unit"`
	Margin       decimal.Decimal      `json:"margin"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search       string     `form:"search"`
	Status       string     `form:"status" binding:"omitempty,oneof=active inactive"`
	ShopkeeperID *uuid.UUID `form:"shopkeeper_id"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                     p.ID,
		ShopkeeperID:           p.ShopkeeperID,
		Name:                   p.Name,
		Description:            p.Description,
		Price:                  p.Price,
		Cost:                   p.Cost,
		Margin:                 p.Margin(),
		CommissionStructure:    toEntryDTOs(p.CommissionStructure),
		TotalCommissionPerUnit: p.TotalCommissionPerUnit(),
		BuyerRewardPoints:      p.BuyerRewardPoints,
		Status:                 string(p.Status),
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
		Version:                p.Version,
	}
}

func toEntryDTOs(entries []catalog.CommissionEntry) []CommissionEntryDTO {
	out := make([]CommissionEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = CommissionEntryDTO{Level: e.Level, Amount: e.Amount}
	}
	return out
}

func fromEntryDTOs(entries []CommissionEntryDTO) []catalog.CommissionEntry {
	out := make([]catalog.CommissionEntry, len(entries))
	for i, e := range entries {
		out[i] = catalog.CommissionEntry{Level: e.Level, Amount: e.Amount}
	}
	return out
}
