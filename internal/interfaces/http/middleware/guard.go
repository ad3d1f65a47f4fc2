package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/interfaces/http/dto"
)

// RequireAdmin rejects callers without the admin claim
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			abortForbidden(c, "Administrator access required")
			return
		}
		c.Next()
	}
}

// RequireRole admits admins and callers whose profile has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if IsAdmin(c) {
			c.Next()
			return
		}
		claims := GetJWTClaims(c)
		if claims == nil || claims.MemberID == "" {
			abortForbidden(c, "A member profile is required")
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			abortForbidden(c, "Your role cannot perform this action")
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin admits admins and the member named by the :param path parameter
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAdmin(c) {
			c.Next()
			return
		}
		target, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Invalid member ID format", c.GetString(RequestIDContextKey)))
			return
		}
		if caller := GetMemberID(c); caller == uuid.Nil || caller != target {
			abortForbidden(c, "You can only access your own member profile")
			return
		}
		c.Next()
	}
}

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, message, c.GetString(RequestIDContextKey)))
}
