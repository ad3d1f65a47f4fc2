package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a sellable item owned by a shopkeeper
type Product struct {
	shared.BaseAggregateRoot
	ShopkeeperID        uuid.UUID
	Name                string
	Description         string
	Price               decimal.Decimal
	Cost                decimal.Decimal
	CommissionStructure []CommissionEntry
	// BuyerRewardPoints are credited to the buyer per unit purchased
	BuyerRewardPoints int64
	Status            ProductStatus
}

// NewProduct creates a new product with an empty commission structure
func NewProduct(shopkeeperID uuid.UUID, name string, price, cost decimal.Decimal) (*Product, error) {
	if shopkeeperID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOPKEEPER", "Shopkeeper ID cannot be empty")
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrices(price, cost); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ShopkeeperID:        shopkeeperID,
		Name:                strings.TrimSpace(name),
		Price:               price,
		Cost:                cost,
		CommissionStructure: []CommissionEntry{},
		Status:              ProductStatusActive,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Margin is price minus cost, the budget commission may consume
func (p *Product) Margin() decimal.Decimal {
	return p.Price.Sub(p.Cost)
}

// TotalCommissionPerUnit is the informational sum of all level amounts
func (p *Product) TotalCommissionPerUnit() decimal.Decimal {
	return Resolve(p).TotalPerUnit()
}

// IsActive reports whether the product can be ordered
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// Update changes the descriptive fields
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.Touch()
	return nil
}

// SetPricing changes price and cost. The current commission structure must
// still fit the new margin, otherwise nothing changes.
func (p *Product) SetPricing(price, cost decimal.Decimal) error {
	if err := validatePrices(price, cost); err != nil {
		return err
	}
	if err := ValidateCommissionStructure(p.CommissionStructure, price, cost); err != nil {
		return err
	}
	p.Price = price
	p.Cost = cost
	p.Touch()
	return nil
}

// SetCommissionStructure replaces the commission table after validation.
// A rejected structure leaves the stored one untouched.
func (p *Product) SetCommissionStructure(entries []CommissionEntry) error {
	if err := ValidateCommissionStructure(entries, p.Price, p.Cost); err != nil {
		return err
	}
	sorted := make([]CommissionEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	p.CommissionStructure = sorted
	p.Touch()
	p.AddDomainEvent(NewCommissionStructureChangedEvent(p))
	return nil
}

// SetBuyerRewardPoints sets the loyalty points earned per unit
func (p *Product) SetBuyerRewardPoints(points int64) error {
	if points < 0 {
		return shared.NewDomainError("INVALID_POINTS", "Reward points cannot be negative")
	}
	p.BuyerRewardPoints = points
	p.Touch()
	return nil
}

// Deactivate hides the product from sale
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
	p.Touch()
}

// Activate puts the product back on sale
func (p *Product) Activate() {
	p.Status = ProductStatusActive
	p.Touch()
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrices(price, cost decimal.Decimal) error {
	if price.IsNegative() || cost.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
