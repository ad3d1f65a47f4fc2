package catalog

import "github.com/mlmshop/backend/internal/domain/shared"

// Catalog errors
var (
	ErrCommissionExceedsProfit    = shared.NewDomainError("COMMISSION_EXCEEDS_PROFIT", "Commission total exceeds available profit margin")
	ErrInvalidCommissionStructure = shared.NewDomainError("INVALID_COMMISSION_STRUCTURE", "Commission structure is invalid")
	ErrInvalidPrice               = shared.NewDomainError("INVALID_PRICE", "Price and cost must be non-negative")
	ErrProductInactive            = shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available for sale")
)
