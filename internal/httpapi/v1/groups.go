package v1

import (
	"net/http"

	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/chart"
)

// POST /v1/companies/{companyID}/seed
func (s *Server) seedCompany(w http.ResponseWriter, r *http.Request) {
	created, err := s.chart.SeedPredefined(r.Context(), companyFrom(r.Context()))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, listResponse[groupResponse]{Items: groupResponses(created)})
}

// GET /v1/companies/{companyID}/groups
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.chart.ListGroups(r.Context(), companyFrom(r.Context()))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, listResponse[groupResponse]{Items: groupResponses(groups)})
}

// POST /v1/companies/{companyID}/groups
func (s *Server) postGroup(w http.ResponseWriter, r *http.Request) {
	in, _ := r.Context().Value(ctxKeyGroupInput).(chart.GroupInput)
	g, err := s.chart.CreateGroup(r.Context(), companyFrom(r.Context()), in)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toGroupResponse(g))
}

// PATCH /v1/companies/{companyID}/groups/{groupID}
func (s *Server) patchGroup(w http.ResponseWriter, r *http.Request) {
	in, _ := r.Context().Value(ctxKeyGroupPatch).(chart.GroupPatch)
	g, err := s.chart.UpdateGroup(r.Context(), companyFrom(r.Context()), idFrom(r.Context(), ctxKeyGroupID), in)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toGroupResponse(g))
}

// DELETE /v1/companies/{companyID}/groups/{groupID}
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.chart.DeleteGroup(r.Context(), companyFrom(r.Context()), idFrom(r.Context(), ctxKeyGroupID)); err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func groupResponses(gs []ledger.AccountGroup) []groupResponse {
	out := make([]groupResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGroupResponse(g))
	}
	return out
}
