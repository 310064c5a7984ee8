package v1

import (
	"net/http"

	"github.com/tinoosan/bookkeeping/internal/dictionary"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// GET /v1/dictionary/groups?category=
func (s *Server) getGroupsDictionary(w http.ResponseWriter, r *http.Request) {
	var only *ledger.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := ledger.Category(raw)
		if !c.Valid() {
			writeErr(w, http.StatusBadRequest, "invalid category", "invalid_category")
			return
		}
		only = &c
	}
	type groupItem struct {
		Category ledger.Category       `json:"category"`
		Groups   []dictionary.GroupDef `json:"groups"`
	}
	out := struct {
		Items []groupItem `json:"items"`
	}{Items: []groupItem{}}
	for _, c := range ledger.Categories {
		if only != nil && *only != c {
			continue
		}
		out.Items = append(out.Items, groupItem{Category: c, Groups: dictionary.GroupsFor(&c)})
	}
	toJSON(w, http.StatusOK, out)
}
