package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CommissionEntries stores a product's commission structure as a JSON array
type CommissionEntries []CommissionEntryJSON

// CommissionEntryJSON is one level of a stored commission structure
type CommissionEntryJSON struct {
	Level  int             `json:"level"`
	Amount decimal.Decimal `json:"amount"`
}

// Value implements driver.Valuer
func (c CommissionEntries) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *CommissionEntries) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*c = CommissionEntries{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CommissionEntries", value)
	}
	if len(raw) == 0 {
		*c = CommissionEntries{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	AggregateModel
	ShopkeeperID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name                string                `gorm:"type:varchar(200);not null"`
	Description         string                `gorm:"type:text"`
	Price               decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Cost                decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CommissionStructure CommissionEntries     `gorm:"type:jsonb;not null"`
	BuyerRewardPoints   int64                 `gorm:"not null;default:0"`
	Status              catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	entries := make([]catalog.CommissionEntry, len(m.CommissionStructure))
	for i, e := range m.CommissionStructure {
		entries[i] = catalog.CommissionEntry{Level: e.Level, Amount: e.Amount}
	}
	return &catalog.Product{
		BaseAggregateRoot:   m.ToAggregateRoot(),
		ShopkeeperID:        m.ShopkeeperID,
		Name:                m.Name,
		Description:         m.Description,
		Price:               m.Price,
		Cost:                m.Cost,
		CommissionStructure: entries,
		BuyerRewardPoints:   m.BuyerRewardPoints,
		Status:              m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ShopkeeperID = p.ShopkeeperID
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Cost = p.Cost
	m.CommissionStructure = make(CommissionEntries, len(p.CommissionStructure))
	for i, e := range p.CommissionStructure {
		m.CommissionStructure[i] = CommissionEntryJSON{Level: e.Level, Amount: e.Amount}
	}
	m.BuyerRewardPoints = p.BuyerRewardPoints
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
