package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/apperr"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusOf is the single mapping from error kind to HTTP status.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Connection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a response. Server-side failures are logged in full
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	resp := errorResponse{Code: status}

	var ae *apperr.Error
	switch kind {
	case apperr.Validation, apperr.NotFound:
		resp.Message = err.Error()
		if errors.As(err, &ae) {
			resp.Field = ae.Field
			resp.Message = ae.Error()
		}
	case apperr.Connection:
		resp.Message = "service temporarily unavailable"
	default:
		resp.Message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}
