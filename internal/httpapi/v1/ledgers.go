package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/service/registry"
)

// GET /v1/companies/{companyID}/ledgers
func (s *Server) listLedgers(w http.ResponseWriter, r *http.Request) {
	views, err := s.registry.ListLedgers(r.Context(), companyFrom(r.Context()))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	out := make([]ledgerResponse, 0, len(views))
	for _, v := range views {
		out = append(out, s.toLedgerResponse(v))
	}
	toJSON(w, http.StatusOK, listResponse[ledgerResponse]{Items: out})
}

// GET /v1/companies/{companyID}/ledgers/{ledgerID}
func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	v, err := s.registry.GetLedger(r.Context(), companyFrom(r.Context()), idFrom(r.Context(), ctxKeyLedgerID))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, s.toLedgerResponse(v))
}

// POST /v1/companies/{companyID}/ledgers
func (s *Server) postLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, _ := ctx.Value(ctxKeyLedgerInput).(registry.LedgerInput)
	l, err := s.registry.CreateLedger(ctx, companyFrom(ctx), in)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	s.respondLedger(w, r, l.ID, http.StatusCreated)
}

// PATCH /v1/companies/{companyID}/ledgers/{ledgerID}
func (s *Server) patchLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, _ := ctx.Value(ctxKeyLedgerPatch).(registry.LedgerPatch)
	l, err := s.registry.UpdateLedger(ctx, companyFrom(ctx), idFrom(ctx, ctxKeyLedgerID), in)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	s.respondLedger(w, r, l.ID, http.StatusOK)
}

// DELETE /v1/companies/{companyID}/ledgers/{ledgerID}
func (s *Server) deleteLedger(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.DeleteLedger(r.Context(), companyFrom(r.Context()), idFrom(r.Context(), ctxKeyLedgerID)); err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondLedger re-reads the ledger so the response carries its group.
func (s *Server) respondLedger(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	v, err := s.registry.GetLedger(r.Context(), companyFrom(r.Context()), id)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, status, s.toLedgerResponse(v))
}
