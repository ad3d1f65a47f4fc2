package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/infrastructure/auth"
	"github.com/mlmshop/backend/internal/infrastructure/logger"
	"github.com/mlmshop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/api/v1/health"},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig validates the bearer access token and stores
// its claims in the gin context
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortUnauthorized(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, cfg, err, "Token validation failed")
			return
		}
		if _, err := claims.MemberUUID(); err != nil {
			abortUnauthorized(c, cfg, auth.ErrInvalidClaims, "Malformed member_id claim")
			return
		}

		c.Set(JWTClaimsKey, claims)

		if claims.MemberID != "" {
			ctx := c.Request.Context()
			ctx, reqLogger := logger.WithMemberID(ctx, logger.FromContext(ctx), claims.MemberID)
			c.Request = c.Request.WithContext(ctx)
			c.Set("logger", reqLogger)
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code := dto.ErrCodeTokenInvalid
	msg := "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		msg = "Invalid token type"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		msg = "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingAccountID), errors.Is(err, auth.ErrInvalidClaims):
		msg = "Token claims are incomplete"
	}
	if message == "Missing authorization header" {
		code, msg = dto.ErrCodeUnauthorized, "Authentication required"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, msg, c.GetString(RequestIDContextKey)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetMemberID returns the caller's member profile, uuid.Nil when the
// token carries none
func GetMemberID(c *gin.Context) uuid.UUID {
	claims := GetJWTClaims(c)
	if claims == nil {
		return uuid.Nil
	}
	id, err := claims.MemberUUID()
	if err != nil {
		return uuid.Nil
	}
	return id
}

// IsAdmin reports whether the caller holds the admin claim
func IsAdmin(c *gin.Context) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.Admin
}
