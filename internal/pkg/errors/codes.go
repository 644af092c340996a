package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthInvalidToken = 2000
	ErrAuthTokenExpired = 2001

	// User errors (3000-3999)
	ErrUserNotFound     = 3000
	ErrUserExists       = 3001
	ErrUserInvalidInput = 3002

	// Product errors (4000-4999)
	ErrProductNotFound     = 4000
	ErrProductInvalidFile  = 4001
	ErrProductFileTooLarge = 4002
	ErrProductStorage      = 4003
	ErrProductUnauthorized = 4004
	ErrVersionNotFound     = 4005
	ErrVersionConflict     = 4006
	ErrBlobNotFound        = 4007

	// Conversion errors (5000-5999)
	ErrConversionFailed      = 5000
	ErrConversionBadTarget   = 5001
	ErrConversionNoSource    = 5002
	ErrConversionQuota       = 5003
	ErrConversionUnsupported = 5004
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// Auth errors
	ErrAuthInvalidToken: {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired: {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},

	// User errors
	ErrUserNotFound:     {ErrUserNotFound, http.StatusNotFound, "User not found"},
	ErrUserExists:       {ErrUserExists, http.StatusConflict, "User already exists"},
	ErrUserInvalidInput: {ErrUserInvalidInput, http.StatusBadRequest, "Invalid user input"},

	// Product errors
	ErrProductNotFound:     {ErrProductNotFound, http.StatusNotFound, "Product not found"},
	ErrProductInvalidFile:  {ErrProductInvalidFile, http.StatusBadRequest, "Unsupported file type"},
	ErrProductFileTooLarge: {ErrProductFileTooLarge, http.StatusBadRequest, "File size exceeds limit"},
	ErrProductStorage:      {ErrProductStorage, http.StatusInternalServerError, "Storage operation failed"},
	ErrProductUnauthorized: {ErrProductUnauthorized, http.StatusForbidden, "Unauthorized access to product"},
	ErrVersionNotFound:     {ErrVersionNotFound, http.StatusNotFound, "Product version not found"},
	ErrVersionConflict:     {ErrVersionConflict, http.StatusConflict, "Product version already exists"},
	ErrBlobNotFound:        {ErrBlobNotFound, http.StatusNotFound, "Stored object not found"},

	// Conversion errors
	ErrConversionFailed:      {ErrConversionFailed, http.StatusInternalServerError, "Conversion processing failed"},
	ErrConversionBadTarget:   {ErrConversionBadTarget, http.StatusBadRequest, "Invalid conversion target"},
	ErrConversionNoSource:    {ErrConversionNoSource, http.StatusUnprocessableEntity, "No source artifact available"},
	ErrConversionQuota:       {ErrConversionQuota, http.StatusTooManyRequests, "AI usage quota exceeded"},
	ErrConversionUnsupported: {ErrConversionUnsupported, http.StatusBadRequest, "Unsupported conversion"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
