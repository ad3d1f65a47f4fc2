package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to every table
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// MemberSortFields contains allowed sort fields for members
var MemberSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"display_name":   true,
	"role":           true,
	"placed_at":      true,
	"total_points":   true,
	"total_earnings": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"name":                true,
	"price":               true,
	"cost":                true,
	"status":              true,
	"buyer_reward_points": true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"status":       true,
	"total_amount": true,
	"paid_at":      true,
	"completed_at": true,
}

// CommissionRecordSortFields contains allowed sort fields for commission records
var CommissionRecordSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"level":      true,
	"amount":     true,
	"status":     true,
	"paid_at":    true,
}

// WithdrawalSortFields contains allowed sort fields for withdrawals
var WithdrawalSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"amount":     true,
}
