package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"moments-backend/internal/common/errors"
	"moments-backend/internal/common/logger"
)

const requestIDKey = "request_id"

// Recovery turns panics into an INTERNAL_ERROR response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)

		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		sendErrorResponse(c, appErr)
		c.Abort()
	})
}

// RequestID propagates X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Errors renders the last error a handler attached with c.Error.
// Handlers that already wrote a response are left alone.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "Handler error occurred")
		}
		sendErrorResponse(c, appErr)
	}
}

type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
	Method    string           `json:"method,omitempty"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	requestID := getRequestID(c)

	appErr.WithRequestID(requestID).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}

	logError(c, appErr)

	c.JSON(HTTPStatus(appErr), response)
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeValidation,
		errors.ErrCodeInvalidAddress,
		errors.ErrCodeAlreadySigned,
		errors.ErrCodeInvalidTransition,
		errors.ErrCodeNotCompleted,
		errors.ErrCodeParticipantMismatch,
		errors.ErrCodeInvalidSignature:
		return http.StatusBadRequest
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeStorage, errors.ErrCodeIdentityProvider:
		return http.StatusBadGateway
	case errors.ErrCodeStoreUnavailable, errors.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func logError(c *gin.Context, appErr *errors.AppError) {
	var event *zerolog.Event
	var msg string
	switch {
	case appErr.IsInternal():
		event, msg = logger.Error(), "Internal error occurred"
	case appErr.IsValidation():
		event, msg = logger.Info(), "Validation error"
	case appErr.IsNotFound():
		event, msg = logger.Info(), "Resource not found"
	default:
		event, msg = logger.Warn(), "Application error occurred"
	}

	event = event.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message)

	if len(appErr.Details) > 0 {
		event = event.Interface("details", appErr.Details)
	}
	if appErr.Cause != nil {
		event = event.Err(appErr.Cause)
	}
	if appErr.IsInternal() && len(appErr.Stack) > 0 {
		event = event.Strs("stack", appErr.Stack)
	}

	event.Msg(msg)
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
