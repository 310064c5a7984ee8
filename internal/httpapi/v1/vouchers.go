package v1

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/service/journal"
)

// GET /v1/companies/{companyID}/vouchers
func (s *Server) listVouchers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	company := companyFrom(ctx)
	items, err := s.journal.ListVouchers(ctx, company)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	names, err := s.ledgerNames(ctx, company)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, listResponse[voucherResponse]{Items: s.toSummaryResponses(items, names)})
}

// GET /v1/companies/{companyID}/vouchers/{voucherID}
func (s *Server) getVoucher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	company := companyFrom(ctx)
	v, err := s.journal.GetVoucher(ctx, company, idFrom(ctx, ctxKeyVoucherID))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	names, err := s.ledgerNames(ctx, company)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	dr, _, err := v.Totals()
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, s.toVoucherResponse(v, dr, names))
}

// POST /v1/companies/{companyID}/vouchers
func (s *Server) postVoucher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cmd, _ := ctx.Value(ctxKeyVoucherInput).(journal.Command)
	v, err := s.journal.CreateVoucher(ctx, companyFrom(ctx), cmd)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	dr, _, err := v.Totals()
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, s.toVoucherResponse(v, dr, nil))
}

// DELETE /v1/companies/{companyID}/vouchers/{voucherID}
func (s *Server) deleteVoucher(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.DeleteVoucher(r.Context(), companyFrom(r.Context()), idFrom(r.Context(), ctxKeyVoucherID)); err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/companies/{companyID}/vouchers/next-number
func (s *Server) nextVoucherNumber(w http.ResponseWriter, r *http.Request) {
	n, err := s.journal.NextVoucherNumber(r.Context(), companyFrom(r.Context()))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]string{"voucherNumber": n})
}

func (s *Server) ledgerNames(ctx context.Context, companyID uuid.UUID) (map[uuid.UUID]string, error) {
	views, err := s.registry.ListLedgers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(views))
	for _, v := range views {
		names[v.ID] = v.Name
	}
	return names, nil
}
