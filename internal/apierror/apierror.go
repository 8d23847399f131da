package apierror

import (
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
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"

	// ErrUnauthorized covers identity mismatches: a depositor that is not the
	// reservation's guest, or a release attempted by anyone but the platform
	// authority.
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrInsufficientFunds is returned when a balance cannot cover a transfer.
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	// ErrInvalidState marks an operation against an escrow whose status does
	// not permit it, such as releasing an already released escrow.
	ErrInvalidState ErrorCode = "INVALID_STATE"
	// ErrTransferFailed wraps value-movement failures from the transfer substrate.
	ErrTransferFailed ErrorCode = "TRANSFER_FAILED"
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

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest:
			return http.StatusBadRequest
		case ErrUnauthorized:
			return http.StatusForbidden
		case ErrInsufficientFunds:
			return http.StatusPaymentRequired
		case ErrInvalidState:
			return http.StatusConflict
		case ErrTransferFailed:
			return http.StatusUnprocessableEntity
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
