package v1

import (
	"context"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/bookkeeping/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
	// TotalDr and TotalCr are set for mismatch errors.
	TotalDr string `json:"totalDr,omitempty"`
	TotalCr string `json:"totalCr,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func notFound(w http.ResponseWriter, msg string) { writeErr(w, http.StatusNotFound, msg, "not_found") }

// writeDomainErr maps service errors onto status codes. Unknown errors are
// logged and answered with a bare 500.
func (s *Server) writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *errs.ValidationError
		me *errs.MismatchError
		de *errs.DuplicateError
	)
	switch {
	case errors.As(err, &me):
		toJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   err.Error(),
			Code:    "mismatch",
			TotalDr: me.TotalDr.String(),
			TotalCr: me.TotalCr.String(),
		})
	case errors.As(err, &ve):
		toJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: validationCode(err), Field: ve.Field})
	case errors.Is(err, errs.ErrNotFound):
		notFound(w, err.Error())
	case errors.As(err, &de):
		toJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "duplicate", Field: de.Field})
	case errors.Is(err, errs.ErrReferenced):
		writeErr(w, http.StatusConflict, err.Error(), "referenced")
	case errors.Is(err, errs.ErrPredefinedGroup):
		writeErr(w, http.StatusConflict, err.Error(), "predefined_group")
	case errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusGatewayTimeout, "request timed out", "timeout")
	default:
		s.log.Error("request failed", "req_id", chimw.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
	}
}

func validationCode(err error) string {
	switch {
	case errors.Is(err, errs.ErrTooFewEntries):
		return "too_few_entries"
	case errors.Is(err, errs.ErrInvalidLedgerReference):
		return "invalid_ledger_reference"
	case errors.Is(err, errs.ErrImmutable):
		return "immutable"
	case errors.Is(err, errs.ErrLimitExceeded):
		return "limit_exceeded"
	}
	return "validation_error"
}
