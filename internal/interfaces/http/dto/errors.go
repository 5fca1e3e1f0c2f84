package dto

import (
	"net/http"

	"github.com/kouden/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from shared.Code*.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeUnauthenticated:    http.StatusUnauthorized,
	shared.CodeForbiddenField:     http.StatusForbidden,
	shared.CodeNotFound:           http.StatusNotFound,
	shared.CodeDuplicateRecord:    http.StatusConflict,
	shared.CodeInvalidFilter:      http.StatusBadRequest,
	shared.CodeInvalidFieldValue:  http.StatusBadRequest,
	shared.CodeInvalidInput:       http.StatusBadRequest,
	shared.CodePersistenceFailure: http.StatusInternalServerError,

	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
