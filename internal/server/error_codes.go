package server

import "net/http"

// Numeric error codes reported in api.ErrorResponse.ErrorCode.
const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidQuery    = 1003
	ErrCodeInvalidID       = 1004
	ErrCodeMissingRequired = 1009

	// Domain state (2xxx)
	ErrCodeNotFound        = 2001
	ErrCodeSessionNotFound = 2002
	ErrCodeBlobNotFound    = 2003

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
)

type statusCode struct {
	name    string
	numeric int
}

// statusCodes names each status the API emits and gives its fallback
// numeric code.
var statusCodes = map[int]statusCode{
	http.StatusBadRequest:          {"invalid_argument", ErrCodeInvalidArgument},
	http.StatusUnauthorized:        {"unauthorized", ErrCodeUnauthorized},
	http.StatusNotFound:            {"not_found", ErrCodeNotFound},
	http.StatusTooManyRequests:     {"resource_exhausted", ErrCodeResourceExhausted},
	http.StatusInternalServerError: {"internal", ErrCodeInternal},
}
