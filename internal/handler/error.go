// Package handler holds the HTTP error and response helpers shared by
// the API handlers.
package handler

import (
	"net/http"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/middleware"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// errorBody is the JSON error envelope. Fields is only present for
// validation errors.
type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse writes a structured JSON error. Internal error details
// are logged but never sent to the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{}
	var status int

	if fields := domain.GetValidationFields(err); fields != nil {
		status = http.StatusBadRequest
		body.Code = domain.EINVALID
		body.Message = "Validation failed"
		body.Fields = fields
	} else {
		code := domain.ErrorCode(err)
		status = ErrorCodeToHTTPStatus(code)
		body.Code = code
		body.Message = domain.ErrorMessage(err)
	}

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", body.Code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request failed", attrs...)
	}

	JSON(w, status, map[string]errorBody{"error": body})
}
