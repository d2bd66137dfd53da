package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error codes returned alongside the message so clients can branch without
// parsing text.
const (
	CodeValidation   = "validation_failed"
	CodeNotFound     = "not_found"
	CodeConflict     = "state_conflict"
	CodeTimeExpired  = "time_expired"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
	CodeBadRequest   = "bad_request"
	genericErrorText = "Something went wrong. Please try again"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return BaseHandler{
		logger: logger,
	}
}

func (h *BaseHandler) requestFields(c *gin.Context, additionalFields []interface{}) []interface{} {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"session_id", SessionID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	return append(fields, additionalFields...)
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := h.requestFields(c, additionalFields)
	fields = append(fields, "remote_addr", c.ClientIP())
	h.logger.DebugContext(c.Request.Context(), message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.logger.LogError(err, message, h.requestFields(c, additionalFields)...)
}

// LogInfo logs informational messages with context
func (h *BaseHandler) LogInfo(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.InfoContext(c.Request.Context(), message, h.requestFields(c, additionalFields)...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.WarnContext(c.Request.Context(), message, h.requestFields(c, additionalFields)...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
		Code:    code,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else if err != nil {
		h.LogWarn(c, message, "status_code", statusCode, "error", err.Error())
	}

	c.AbortWithStatusJSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response and logs it
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}, additionalFields ...interface{}) {
	fields := []interface{}{"status_code", statusCode}
	fields = append(fields, additionalFields...)
	h.LogInfo(c, message, fields...)

	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// invalidPayload answers malformed JSON or query strings
func (h *BaseHandler) invalidPayload(c *gin.Context, err error) {
	h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid request payload", err, err.Error())
}

// handleServiceError maps service errors onto HTTP statuses. Unclassified
// errors never leak their text to the client.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", err, validationErrors)
		return
	}

	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusUnprocessableEntity, CodeValidation, err.Error(), err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, err.Error(), err)
	case services.IsStateError(err):
		h.RespondWithError(c, http.StatusConflict, CodeConflict, err.Error(), err)
	case services.IsTimeExpired(err):
		h.RespondWithError(c, http.StatusGone, CodeTimeExpired, err.Error(), err)
	case services.IsRateLimited(err):
		if wait, ok := services.RetryAfter(err); ok {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait.Seconds())))
		}
		h.RespondWithError(c, http.StatusTooManyRequests, CodeRateLimited, services.ErrRateLimited.Error(), err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, genericErrorText, err)
	}
}

func retryAfterSeconds(seconds float64) int {
	n := int(math.Ceil(seconds))
	if n < 1 {
		return 1
	}
	return n
}
