package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/service/journal"
)

type ctxKey string

const (
	ctxKeyCompany      ctxKey = "companyID"
	ctxKeyGroupID      ctxKey = "groupID"
	ctxKeyLedgerID     ctxKey = "ledgerID"
	ctxKeyVoucherID    ctxKey = "voucherID"
	ctxKeyGroupInput   ctxKey = "validatedGroupInput"
	ctxKeyGroupPatch   ctxKey = "validatedGroupPatch"
	ctxKeyLedgerInput  ctxKey = "validatedLedgerInput"
	ctxKeyLedgerPatch  ctxKey = "validatedLedgerPatch"
	ctxKeyVoucherInput ctxKey = "validatedVoucher"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// companyScope parses {companyID} and stores it in the request context.
func companyScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "companyID"))
		if err != nil || id == uuid.Nil {
			writeErr(w, http.StatusBadRequest, "invalid companyID", "invalid_company_id")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyCompany, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// pathID parses the named uuid URL parameter into the request context.
func pathID(param string, key ctxKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, param))
			if err != nil {
				writeErr(w, http.StatusBadRequest, "invalid "+param, "invalid_id")
				return
			}
			ctx := context.WithValue(r.Context(), key, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// decodeBody decodes the JSON body into a T and stores it under key. Field
// level checks are left to the services, which own the rules.
func decodeBody[T any](key ctxKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req T
			if err := decodeJSON(w, r, &req); err != nil {
				writeErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "invalid_json")
				return
			}
			ctx := context.WithValue(r.Context(), key, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateVoucher normalizes POST /vouchers into a journal.Command. Header
// errors are answered here; entry level checks need the company's ledgers and
// run inside the store.
func (s *Server) validateVoucher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req journal.VoucherPayload
		if err := decodeJSON(w, r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "invalid_json")
			return
		}
		cmd, err := journal.NewCommand(req)
		if err != nil {
			s.writeDomainErr(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyVoucherInput, cmd)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func companyFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyCompany).(uuid.UUID)
	return id
}

func idFrom(ctx context.Context, key ctxKey) uuid.UUID {
	id, _ := ctx.Value(key).(uuid.UUID)
	return id
}
