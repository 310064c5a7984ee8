package v1

import (
	"context"
	"net/http"

	"github.com/tinoosan/bookkeeping/internal/cache"
)

// cachedReport answers with the report of kind for the request's company.
// Keys carry the journal version read up front; build reports the version it
// actually computed from, so a racing write only costs a cache store.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, kind string, dest any, build cache.Loader, extra ...string) {
	ctx := r.Context()
	company := companyFrom(ctx)
	version, err := s.versions.JournalVersion(ctx, company)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	if err := s.cache.FetchJSON(ctx, cache.Key(company, version, kind, extra...), version, dest, build); err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, dest)
}

// GET /v1/companies/{companyID}/reports/trial-balance
func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())
	var out trialBalanceResponse
	s.cachedReport(w, r, "trial-balance", &out, func(ctx context.Context) (any, int64, error) {
		tb, err := s.reports.TrialBalance(ctx, company)
		if err != nil {
			return nil, 0, err
		}
		return s.toTrialBalanceResponse(tb), tb.Version, nil
	})
}

// GET /v1/companies/{companyID}/reports/profit-loss
func (s *Server) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())
	var out profitAndLossResponse
	s.cachedReport(w, r, "profit-loss", &out, func(ctx context.Context) (any, int64, error) {
		pl, err := s.reports.ProfitAndLoss(ctx, company)
		if err != nil {
			return nil, 0, err
		}
		return s.toProfitAndLossResponse(pl), pl.Version, nil
	})
}

// GET /v1/companies/{companyID}/reports/balance-sheet
func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())
	var out balanceSheetResponse
	s.cachedReport(w, r, "balance-sheet", &out, func(ctx context.Context) (any, int64, error) {
		bs, err := s.reports.BalanceSheet(ctx, company)
		if err != nil {
			return nil, 0, err
		}
		return s.toBalanceSheetResponse(bs), bs.Version, nil
	})
}

// GET /v1/companies/{companyID}/reports/ledgers/{ledgerID}/statement
func (s *Server) ledgerStatement(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())
	ledgerID := idFrom(r.Context(), ctxKeyLedgerID)
	var out statementResponse
	s.cachedReport(w, r, "statement", &out, func(ctx context.Context) (any, int64, error) {
		st, err := s.reports.LedgerStatement(ctx, company, ledgerID)
		if err != nil {
			return nil, 0, err
		}
		return s.toStatementResponse(st), st.Version, nil
	}, ledgerID.String())
}

// GET /v1/companies/{companyID}/dashboard
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())
	var out statsResponse
	s.cachedReport(w, r, "stats", &out, func(ctx context.Context) (any, int64, error) {
		st, err := s.reports.Stats(ctx, company)
		if err != nil {
			return nil, 0, err
		}
		return s.toStatsResponse(st), st.Version, nil
	})
}
