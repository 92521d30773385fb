package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeValidation   = "ERR_VALIDATION"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Domain error
// codes that surface unchanged get their own entries.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Pricing context lookups
	"POLICY_NOT_FOUND":     http.StatusNotFound,
	"TICK_NOT_FOUND":       http.StatusUnprocessableEntity,
	"FACTOR_SET_NOT_FOUND": http.StatusUnprocessableEntity,

	// Mapping management
	"MAPPING_NOT_FOUND":         http.StatusNotFound,
	"MAPPING_INVALID_MODE":      http.StatusBadRequest,
	"MAPPING_RULE_SET_REQUIRED": http.StatusBadRequest,
	"MAPPING_MANUAL_TARGET":     http.StatusBadRequest,
	"MAPPING_PRODUCT_NO":        http.StatusBadRequest,
	"MAPPING_RULES_INCOMPLETE":  http.StatusUnprocessableEntity,

	// Push orchestration
	"SYNC_JOB_NOT_FOUND":   http.StatusNotFound,
	"CREDENTIAL_NOT_FOUND": http.StatusBadGateway,
	"CHANNEL_UNAVAILABLE":  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps shared domain error codes to the HTTP-facing
// standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"INVALID_INPUT": ErrCodeInvalidInput,
	"INVALID_STATE": ErrCodeInvalidState,
}

// NormalizeErrorCode converts a shared domain code to the standardized format.
// Domain-specific codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
