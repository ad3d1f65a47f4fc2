package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/config"
)

// TokenType distinguishes access tokens from shopkeeper invites
type TokenType string

const (
	TokenTypeAccess TokenType = "access"
	TokenTypeInvite TokenType = "invite"
)

// inviteKeyPrefix namespaces consumed invites in the idempotency store
const inviteKeyPrefix = "invite:"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingAccountID = errors.New("missing account_id in claims")
	ErrInviteUsed       = errors.New("invite has already been used")
)

// Claims are the identity asserted by a token. Access tokens carry the
// account and, once the caller picked a profile, the member id and role.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string    `json:"account_id,omitempty"`
	MemberID  string    `json:"member_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Admin     bool      `json:"admin,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// AccessTokenInput describes the identity to put in an access token
type AccessTokenInput struct {
	AccountID uuid.UUID
	MemberID  uuid.UUID
	Role      string
	Admin     bool
}

// IssuedToken is a signed token and when it expires
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}

// JWTService signs and checks access tokens and shopkeeper invites
type JWTService struct {
	secret           []byte
	accessExpiration time.Duration
	inviteExpiration time.Duration
	issuer           string
	consumed         shared.IdempotencyStore
	now              func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:           []byte(cfg.Secret),
		accessExpiration: cfg.AccessTokenExpiration,
		inviteExpiration: cfg.InviteTokenExpiration,
		issuer:           cfg.Issuer,
		now:              time.Now,
	}
}

// SetInviteStore makes invites single use: the first successful
// validation consumes the invite id.
func (s *JWTService) SetInviteStore(store shared.IdempotencyStore) {
	s.consumed = store
}

// GenerateAccessToken signs an access token for the given identity
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (*IssuedToken, error) {
	if input.AccountID == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	claims := &Claims{
		RegisteredClaims: s.registered(input.AccountID.String(), s.accessExpiration),
		AccountID:        input.AccountID.String(),
		Role:             input.Role,
		Admin:            input.Admin,
		TokenType:        TokenTypeAccess,
	}
	if input.MemberID != uuid.Nil {
		claims.MemberID = input.MemberID.String()
	}
	return s.sign(claims)
}

// GenerateInviteToken signs a shopkeeper invite issued by an admin
func (s *JWTService) GenerateInviteToken(issuedBy uuid.UUID) (*IssuedToken, error) {
	claims := &Claims{
		RegisteredClaims: s.registered(issuedBy.String(), s.inviteExpiration),
		TokenType:        TokenTypeInvite,
	}
	return s.sign(claims)
}

// ValidateAccessToken checks an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if claims.AccountID == "" {
		return nil, ErrMissingAccountID
	}
	return claims, nil
}

// ValidateInviteToken checks a shopkeeper invite. With an invite store
// set, a valid invite is consumed and cannot be used again.
func (s *JWTService) ValidateInviteToken(tokenString string) error {
	claims, err := s.parse(tokenString, TokenTypeInvite)
	if err != nil {
		return err
	}
	if s.consumed == nil {
		return nil
	}

	ttl := claims.RemainingTTL(s.now())
	fresh, err := s.consumed.MarkProcessed(context.Background(), inviteKeyPrefix+claims.ID, ttl)
	if err != nil {
		return err
	}
	if !fresh {
		return ErrInviteUsed
	}
	return nil
}

func (s *JWTService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    s.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (s *JWTService) sign(claims *Claims) (*IssuedToken, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
		TokenType: "Bearer",
	}, nil
}

func (s *JWTService) parse(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// MemberUUID parses the member id; uuid.Nil when the token has none
func (c *Claims) MemberUUID() (uuid.UUID, error) {
	if c.MemberID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(c.MemberID)
}

// AccountUUID parses the account id
func (c *Claims) AccountUUID() (uuid.UUID, error) {
	return uuid.Parse(c.AccountID)
}

// RemainingTTL is the time left before expiry at now, never negative
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
