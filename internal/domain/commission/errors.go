package commission

import "github.com/mlmshop/backend/internal/domain/shared"

// Ledger errors
var (
	ErrRecordNotCancellable       = shared.NewDomainError("RECORD_NOT_CANCELLABLE", "Commission record is already paid or cancelled")
	ErrRecordNotPayable           = shared.NewDomainError("RECORD_NOT_PAYABLE", "Only pending commission records can be paid")
	ErrDuplicateOrderDistribution = shared.NewDomainError("DUPLICATE_ORDER_DISTRIBUTION", "Commission for this order has already been distributed")
	ErrInvalidQuantity            = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrInvalidAmount              = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
)
