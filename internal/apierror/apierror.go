package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrTimeout        ErrorCode = "TIMEOUT"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// MapHTTPStatusToCode classifies a remote platform response status into an
// error code. Both 409 and 400 mean the submission is already in a terminal
// state: the platform answers a repeated transition with 400.
func MapHTTPStatusToCode(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict || status == http.StatusBadRequest:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrInternalServer
	case status >= 400:
		return ErrBadRequest
	default:
		return ErrInternalServer
	}
}

// Code extracts the error code from an error, or ErrInternalServer when the
// error is not an APIError.
func Code(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

// Retryable reports whether the error is transient: timeouts, rate limits
// and remote 5xx responses are retried with backoff, everything else is not.
func Retryable(err error) bool {
	switch Code(err) {
	case ErrTimeout, ErrRateLimited, ErrInternalServer:
		return true
	default:
		return false
	}
}

// Conflict reports whether the error signals that the submission was already
// actioned outside this run. That is an expected race with manual
// intervention, recorded as a skip rather than a failure.
func Conflict(err error) bool {
	code := Code(err)
	return code == ErrConflict || code == ErrNotFound
}

// Auth reports whether the error means the credentials are broken. Auth
// errors abort the whole run: every subsequent call would fail the same way.
func Auth(err error) bool {
	return Code(err) == ErrUnauthorized
}
