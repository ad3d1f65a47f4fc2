package member

import "github.com/mlmshop/backend/internal/domain/shared"

// Placement and ledger errors
var (
	ErrInvalidReferralCode        = shared.NewDomainError("INVALID_REFERRAL_CODE", "Referral code does not resolve to an active member")
	ErrTreeFull                   = shared.NewDomainError("TREE_FULL", "No free slot found within the placement depth limit")
	ErrPlacementContention        = shared.NewDomainError("PLACEMENT_CONTENTION", "Placement slot was repeatedly claimed by concurrent registrations, retry later")
	ErrAlreadyPlaced              = shared.NewDomainError("ALREADY_PLACED", "Member is already placed in the referral tree")
	ErrNotPlaceable               = shared.NewDomainError("MEMBER_NOT_PLACEABLE", "Member cannot be placed in the referral tree")
	ErrMemberPending              = shared.NewDomainError("MEMBER_PENDING", "Member is pending approval")
	ErrProfileLimitReached        = shared.NewDomainError("PROFILE_LIMIT_REACHED", "Account already holds the maximum number of profiles")
	ErrInvalidInvite              = shared.NewDomainError("INVALID_INVITE", "Invite token is invalid or expired")
	ErrInsufficientPendingBalance = shared.NewDomainError("INSUFFICIENT_PENDING_BALANCE", "Amount exceeds pending withdrawal balance")
	ErrInconsistentLedger         = shared.NewDomainError("INCONSISTENT_LEDGER", "Earnings ledger invariant violated")
	ErrCorruptTree                = shared.NewDomainError("CORRUPT_TREE", "Referral tree links form a cycle")
)
