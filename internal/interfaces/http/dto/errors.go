package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used when the domain rejects an input value
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for domain codes without a dedicated mapping
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Referral network error codes
const (
	ErrCodeInvalidReferralCode = "ERR_INVALID_REFERRAL_CODE"
	ErrCodeTreeFull            = "ERR_TREE_FULL"
	// ErrCodePlacementContention is retryable; responses carry Retry-After
	ErrCodePlacementContention = "ERR_PLACEMENT_CONTENTION"
	ErrCodeAlreadyPlaced       = "ERR_ALREADY_PLACED"
	ErrCodeMemberNotPlaceable  = "ERR_MEMBER_NOT_PLACEABLE"
	ErrCodeMemberPending       = "ERR_MEMBER_PENDING"
	ErrCodeProfileLimit        = "ERR_PROFILE_LIMIT_REACHED"
	ErrCodeInvalidInvite       = "ERR_INVALID_INVITE"
	ErrCodeCorruptTree         = "ERR_CORRUPT_TREE"
)

// Catalog error codes
const (
	ErrCodeCommissionExceedsProfit    = "ERR_COMMISSION_EXCEEDS_PROFIT"
	ErrCodeInvalidCommissionStructure = "ERR_INVALID_COMMISSION_STRUCTURE"
	ErrCodeInvalidPrice               = "ERR_INVALID_PRICE"
	ErrCodeProductInactive            = "ERR_PRODUCT_INACTIVE"
)

// Commission ledger error codes
const (
	ErrCodeInsufficientPendingBalance = "ERR_INSUFFICIENT_PENDING_BALANCE"
	// ErrCodeInconsistentLedger is fatal for the operation and never retried by clients
	ErrCodeInconsistentLedger    = "ERR_INCONSISTENT_LEDGER"
	ErrCodeRecordNotCancellable  = "ERR_RECORD_NOT_CANCELLABLE"
	ErrCodeRecordNotPayable      = "ERR_RECORD_NOT_PAYABLE"
	ErrCodeDuplicateDistribution = "ERR_DUPLICATE_ORDER_DISTRIBUTION"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,

	ErrCodeInvalidReferralCode: http.StatusUnprocessableEntity,
	ErrCodeTreeFull:            http.StatusConflict,
	ErrCodePlacementContention: http.StatusServiceUnavailable,
	ErrCodeAlreadyPlaced:       http.StatusConflict,
	ErrCodeMemberNotPlaceable:  http.StatusUnprocessableEntity,
	ErrCodeMemberPending:       http.StatusForbidden,
	ErrCodeProfileLimit:        http.StatusConflict,
	ErrCodeInvalidInvite:       http.StatusForbidden,
	ErrCodeCorruptTree:         http.StatusInternalServerError,

	ErrCodeCommissionExceedsProfit:    http.StatusUnprocessableEntity,
	ErrCodeInvalidCommissionStructure: http.StatusBadRequest,
	ErrCodeInvalidPrice:               http.StatusBadRequest,
	ErrCodeProductInactive:            http.StatusUnprocessableEntity,

	ErrCodeInsufficientPendingBalance: http.StatusUnprocessableEntity,
	ErrCodeInconsistentLedger:         http.StatusInternalServerError,
	ErrCodeRecordNotCancellable:       http.StatusConflict,
	ErrCodeRecordNotPayable:           http.StatusConflict,
	ErrCodeDuplicateDistribution:      http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,

	"INVALID_REFERRAL_CODE": ErrCodeInvalidReferralCode,
	"TREE_FULL":             ErrCodeTreeFull,
	"PLACEMENT_CONTENTION":  ErrCodePlacementContention,
	"ALREADY_PLACED":        ErrCodeAlreadyPlaced,
	"MEMBER_NOT_PLACEABLE":  ErrCodeMemberNotPlaceable,
	"MEMBER_PENDING":        ErrCodeMemberPending,
	"PROFILE_LIMIT_REACHED": ErrCodeProfileLimit,
	"INVALID_INVITE":        ErrCodeInvalidInvite,
	"CORRUPT_TREE":          ErrCodeCorruptTree,

	"COMMISSION_EXCEEDS_PROFIT":    ErrCodeCommissionExceedsProfit,
	"INVALID_COMMISSION_STRUCTURE": ErrCodeInvalidCommissionStructure,
	"INVALID_PRICE":                ErrCodeInvalidPrice,
	"PRODUCT_INACTIVE":             ErrCodeProductInactive,

	"INSUFFICIENT_PENDING_BALANCE": ErrCodeInsufficientPendingBalance,
	"INCONSISTENT_LEDGER":          ErrCodeInconsistentLedger,
	"RECORD_NOT_CANCELLABLE":       ErrCodeRecordNotCancellable,
	"RECORD_NOT_PAYABLE":           ErrCodeRecordNotPayable,
	"DUPLICATE_ORDER_DISTRIBUTION": ErrCodeDuplicateDistribution,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Field-level domain codes (INVALID_NAME, INVALID_QUANTITY, ...) become
// invalid input, anything else is a business rule violation.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if len(code) > len("INVALID_") && code[:len("INVALID_")] == "INVALID_" {
		return ErrCodeInvalidInput
	}
	return ErrCodeBusinessRule
}
