package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"

	// Moment lifecycle
	ErrCodeAlreadySigned       ErrorCode = "ALREADY_SIGNED"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeNotCompleted        ErrorCode = "NOT_COMPLETED"
	ErrCodeParticipantMismatch ErrorCode = "PARTICIPANT_MISMATCH"
	ErrCodeInvalidSignature    ErrorCode = "INVALID_SIGNATURE"

	ErrCodeInvalidAddress ErrorCode = "INVALID_ADDRESS"

	// Collaborators
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStorage          ErrorCode = "STORAGE_ERROR"
	ErrCodeIdentityProvider ErrorCode = "IDENTITY_PROVIDER_ERROR"
)

// AppError is a typed application error rendered to clients by the error middleware.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"-"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeInvalidAddress
}

// IsInvalidTransition reports lifecycle violations. A double sign is one.
func (e *AppError) IsInvalidTransition() bool {
	return e.Code == ErrCodeInvalidTransition ||
		e.Code == ErrCodeAlreadySigned ||
		e.Code == ErrCodeNotCompleted
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeStoreUnavailable ||
		e.Code == ErrCodeStorage ||
		e.Code == ErrCodeIdentityProvider
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason)).
		WithDetail("reason", reason)
}

func NewAlreadySignedError(participantID string) *AppError {
	return New(ErrCodeAlreadySigned, "You have already signed this moment").
		WithDetail("participant_id", participantID)
}

func NewNotCompletedError(momentID string, status string) *AppError {
	return New(ErrCodeNotCompleted, "Cannot publish a moment that is not completed. All participants must sign first.").
		WithDetail("moment_id", momentID).
		WithDetail("status", status)
}

func NewParticipantMismatchError(participantID, momentID string) *AppError {
	return New(ErrCodeParticipantMismatch, "Participant does not belong to this moment").
		WithDetail("participant_id", participantID).
		WithDetail("moment_id", momentID)
}

func NewInvalidSignatureError(reason string) *AppError {
	return New(ErrCodeInvalidSignature, fmt.Sprintf("Invalid signature or message: %s", reason)).
		WithDetail("reason", reason)
}

func NewInvalidAddressError(field, address string) *AppError {
	return New(ErrCodeInvalidAddress, fmt.Sprintf("Invalid wallet address in field '%s'", field)).
		WithDetail("field", field).
		WithDetail("address", address)
}

func NewStoreUnavailableError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStoreUnavailable, fmt.Sprintf("Store operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("Media storage operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewIdentityProviderError(err error) *AppError {
	return Wrap(err, ErrCodeIdentityProvider, "Identity provider request failed")
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
