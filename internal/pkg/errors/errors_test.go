package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndExtractCode(t *testing.T) {
	err := New(ErrProductNotFound)
	require.Error(t, err)

	assert.Equal(t, ErrProductNotFound, ExtractCode(err))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ExtractCode(err)))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrProductStorage)

	assert.Equal(t, ErrProductStorage, ExtractCode(err))
	assert.True(t, errors.Is(err, cause))
}

func TestExtractCodeUnknownError(t *testing.T) {
	err := errors.New("plain error")
	assert.Equal(t, ErrInternalServer, ExtractCode(err))
}

func TestCodeMapStatuses(t *testing.T) {
	tests := []struct {
		code   int
		status int
	}{
		{ErrConversionQuota, http.StatusTooManyRequests},
		{ErrConversionNoSource, http.StatusUnprocessableEntity},
		{ErrConversionUnsupported, http.StatusBadRequest},
		{ErrVersionConflict, http.StatusConflict},
		{ErrBlobNotFound, http.StatusNotFound},
		{ErrProductUnauthorized, http.StatusForbidden},
		{ErrUserExists, http.StatusConflict},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, GetHTTPStatus(tt.code), "code %d", tt.code)
	}
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Product not found", FormatError(ErrProductNotFound))
	assert.Equal(t, "Product not found: id abc", FormatError(ErrProductNotFound, "id abc"))
}

func TestGetCodeFallback(t *testing.T) {
	c := GetCode(999999)
	assert.Equal(t, ErrInternalServer, c.Code)
}
