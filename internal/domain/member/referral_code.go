package member

import (
	"crypto/rand"
	"strings"

	"github.com/mlmshop/backend/internal/domain/shared"
)

// ReferralCodeLength is the length of generated referral codes
const ReferralCodeLength = 8

// Crockford-style alphabet without 0/O and 1/I/L look-alikes
const referralAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateReferralCode returns a random referral code
func GenerateReferralCode() (string, error) {
	buf := make([]byte, ReferralCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, ReferralCodeLength)
	for i, b := range buf {
		out[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return string(out), nil
}

// NormalizeReferralCode upper-cases and validates a code typed by a user
func NormalizeReferralCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 4 || len(code) > 32 {
		return "", shared.NewDomainError(ErrInvalidReferralCode.Code, "Referral code must be 4-32 characters")
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '-' {
			return "", shared.NewDomainError(ErrInvalidReferralCode.Code, "Referral code contains invalid characters")
		}
	}
	return code, nil
}
