package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/gosocial/internal/apperr"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthenticated:   http.StatusUnauthorized,
	apperr.KindInvalid:           http.StatusBadRequest,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindForbidden:         http.StatusForbidden,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindInsufficientFunds: http.StatusUnprocessableEntity,
	apperr.KindSelfTipNotAllowed: http.StatusUnprocessableEntity,
	apperr.KindTransient:         http.StatusServiceUnavailable,
}

// NewAppError maps a typed failure to its response. Untyped and internal
// errors become a 500 that does not expose the cause.
func NewAppError(err error) *ApiError {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return NewInternalServerError(err)
	}

	status, ok := kindStatus[e.Kind]
	if !ok {
		return NewInternalServerError(err)
	}

	return &ApiError{
		StatusCode: status,
		Code:       string(e.Kind),
		Message:    e.Message,
		Err:        err,
	}
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Code:       string(apperr.KindInvalid),
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Code:       string(apperr.KindInternal),
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Code:       string(apperr.KindUnauthenticated),
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}
