package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorMessage(t *testing.T) {
	err := NewAPIError(ErrInvalidState, "escrow is not in FUNDED status", nil)
	assert.Equal(t, "INVALID_STATE: escrow is not in FUNDED status", err.Error())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusForbidden},
		{ErrInsufficientFunds, http.StatusPaymentRequired},
		{ErrInvalidState, http.StatusConflict},
		{ErrTransferFailed, http.StatusUnprocessableEntity},
		{ErrInternalServer, http.StatusInternalServerError},
	}
	for _, c := range cases {
		got := MapErrorToHTTPStatus(NewAPIError(c.code, "boom", nil))
		assert.Equal(t, c.want, got, "code %s", c.code)
	}
}

func TestMapErrorToHTTPStatusPlainError(t *testing.T) {
	got := MapErrorToHTTPStatus(errors.New("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, got)
}
