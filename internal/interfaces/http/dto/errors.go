package dto

import (
	"errors"
	"net/http"

	"github.com/storefront/cartsync/internal/domain/shared"
)

// Error codes. Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeItemBusy     = "ERR_ITEM_BUSY"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeUpstream     = "ERR_UPSTREAM"
	ErrCodeUnknownRoute = "ERR_UNKNOWN_ROUTE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeItemBusy:     http.StatusConflict,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeUpstream:     http.StatusBadGateway,
	ErrCodeUnknownRoute: http.StatusNotFound,
}

// domainCodes translates cart domain error codes into API error codes
var domainCodes = map[string]string{
	"ITEM_BUSY":        ErrCodeItemBusy,
	"ITEM_NOT_FOUND":   ErrCodeNotFound,
	"INVALID_QUANTITY": ErrCodeValidation,
	"INVALID_PRODUCT":  ErrCodeValidation,
	"UPDATE_ABORTED":   ErrCodeUpstream,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError maps an error to an API error code, HTTP status and message
func FromError(err error) (code string, status int, message string) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		apiCode, ok := domainCodes[de.Code]
		if !ok {
			apiCode = ErrCodeBadRequest
		}
		return apiCode, GetHTTPStatus(apiCode), de.Message
	}
	return ErrCodeInternal, http.StatusInternalServerError, "Internal server error"
}
