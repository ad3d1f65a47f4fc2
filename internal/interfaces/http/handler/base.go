package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/logger"
	"github.com/mlmshop/backend/internal/interfaces/http/dto"
	"github.com/mlmshop/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// contentionRetryAfter is the Retry-After hint, in seconds, sent with
// placement contention responses
const contentionRetryAfter = 1

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDContextKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// HandleError converts service errors to HTTP responses.
//
// Domain errors keep their message and map to a status through the dto
// tables. A commission structure over margin also reports the total and the
// margin it had to fit in. Anything else is logged and hidden behind a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var exceeds *catalog.CommissionExceedsProfitError
	if errors.As(err, &exceeds) {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeCommissionExceedsProfit, exceeds.Error(), requestID)
		resp.Error.Details = gin.H{
			"total":     exceeds.Total,
			"available": exceeds.Available,
		}
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeCommissionExceedsProfit), resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		if code == dto.ErrCodePlacementContention {
			c.Header("Retry-After", strconv.Itoa(contentionRetryAfter))
		}
		if statusCode >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("request failed on an integrity check",
				zap.String("code", domainErr.Code),
				zap.Error(err),
			)
		}
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	logger.GetGinLogger(c).Error("unexpected error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// bindJSON binds the body and writes the error response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and writes the error response on failure
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON: "+err.Error())
}

// parseUUIDParam reads a UUID path parameter and writes a 400 when it is malformed
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// callerMember returns the caller's member profile and writes a 403 when
// the token carries none
func (h *BaseHandler) callerMember(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetMemberID(c)
	if id == uuid.Nil {
		h.Forbidden(c, "Select a member profile first")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
