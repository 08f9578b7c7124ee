package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked       ErrorCode = "TOKEN_REVOKED"

	ErrCodeSecondFactorRequired ErrorCode = "2FA_REQUIRED"
	ErrCodeInvalidOTP           ErrorCode = "INVALID_OTP"
	ErrCodeAlreadyEnabled       ErrorCode = "2FA_ALREADY_ENABLED"
	ErrCodeSetupRequired        ErrorCode = "2FA_SETUP_REQUIRED"
	ErrCodeInvalidAuthType      ErrorCode = "INVALID_AUTH_TYPE"
	ErrCodePhoneMissing         ErrorCode = "PHONE_NUMBER_MISSING"

	ErrCodeApprovalNotFound ErrorCode = "APPROVAL_NOT_FOUND"
	ErrCodeInvalidAction    ErrorCode = "INVALID_ACTION"
	ErrCodeAlreadyResolved  ErrorCode = "ALREADY_RESOLVED"
	ErrCodeUnknownSubject   ErrorCode = "UNKNOWN_SUBJECT"
	ErrCodeSubjectNotFound  ErrorCode = "SUBJECT_NOT_FOUND"

	ErrCodeLeaveNotFound        ErrorCode = "LEAVE_NOT_FOUND"
	ErrCodeInvalidLeaveDates    ErrorCode = "INVALID_LEAVE_DATES"
	ErrCodeInvalidLeaveType     ErrorCode = "INVALID_LEAVE_TYPE"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeUnauthorizedAccess   ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeEmailTaken           ErrorCode = "EMAIL_TAKEN"
	ErrCodeSamePassword         ErrorCode = "SAME_PASSWORD"
)

// AppError carries an error taxonomy entry together with the HTTP status it
// should surface as. The Code field is machine-readable: clients branch on it
// (notably 2FA_REQUIRED vs INVALID_OTP during the login protocol).
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithMessage returns a copy carrying a request-specific message, keeping the
// sentinel untouched so errors.Is comparisons still work on the original.
func (e *AppError) WithMessage(message string) *AppError {
	clone := *e
	clone.Message = message
	return &clone
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrTokenRevoked       = NewUnauthorizedError("Refresh token has been revoked", ErrCodeTokenRevoked)

	ErrSecondFactorRequired = NewValidationError("2FA code required.", ErrCodeSecondFactorRequired)
	ErrInvalidOTP           = NewValidationError("Invalid authentication code.", ErrCodeInvalidOTP)
	ErrAlreadyEnabled       = NewValidationError("2FA is already enabled.", ErrCodeAlreadyEnabled)
	ErrSetupRequired        = NewValidationError("Please setup Authenticator App first.", ErrCodeSetupRequired)
	ErrInvalidAuthType      = NewValidationError("Invalid auth type.", ErrCodeInvalidAuthType)
	ErrPhoneMissing         = NewValidationError("No phone number on file for SMS OTP", ErrCodePhoneMissing)

	ErrApprovalNotFound = NewNotFoundError("Approval request not found", ErrCodeApprovalNotFound)
	ErrInvalidAction    = NewValidationError("Invalid action", ErrCodeInvalidAction)
	ErrAlreadyResolved  = NewConflictError("Approval request already resolved", ErrCodeAlreadyResolved)
	ErrUnknownSubject   = NewValidationError("Unknown approval subject type", ErrCodeUnknownSubject)
	ErrSubjectNotFound  = NewValidationError("Approval subject does not exist", ErrCodeSubjectNotFound)

	ErrLeaveNotFound        = NewNotFoundError("Leave request not found", ErrCodeLeaveNotFound)
	ErrNotificationNotFound = NewNotFoundError("Notification not found", ErrCodeNotificationNotFound)
	ErrUnauthorizedAccess   = NewForbiddenError("Insufficient permissions", ErrCodeUnauthorizedAccess)
	ErrUserNotFound         = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrEmailTaken           = NewConflictError("Email is already registered", ErrCodeEmailTaken)
	ErrSamePassword         = NewValidationError("New password must be different from old password", ErrCodeSamePassword)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
