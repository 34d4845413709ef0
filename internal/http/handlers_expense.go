package http

import (
	"net/http"

	"github.com/go-chi/chi"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
)

const maxListLimit = 500

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query(), maxListLimit)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	list := s.deps.Records.Records()
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	if list == nil {
		list = []core.Record{}
	}
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Records.Remove(r.Context(), id) {
		NotFoundError("no expense with id " + id).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted", log.FieldRecordID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	s.deps.Records.Clear(r.Context())
	log.FromContext(r.Context()).InfoContext(r.Context(), "All expenses cleared")
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGroupedExpenses(w http.ResponseWriter, r *http.Request) {
	groups := s.deps.Records.GroupByCategoryThenDate()
	if groups == nil {
		groups = []core.CategoryGroup{}
	}
	NewJSONResponse().Body(groups).Write(w)
}

// handleTotals answers one category total, optionally for one day, or the
// total of every category when no category is given.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	q, err := ParseTotalsQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	switch {
	case q.Category == "":
		cats := s.deps.Records.Categories()
		out := make([]core.CategoryAmount, 0, len(cats))
		for _, c := range cats {
			out = append(out, core.CategoryAmount{Name: c, Amount: s.deps.Records.TotalByCategory(c)})
		}
		NewJSONResponse().Body(out).Write(w)
	case q.Date != "":
		total := s.deps.Records.TotalByCategoryAndDate(q.Category, q.Date)
		NewJSONResponse().Body(totalBody{Category: q.Category, Date: q.Date, Total: total.String()}).Write(w)
	default:
		total := s.deps.Records.TotalByCategory(q.Category)
		NewJSONResponse().Body(totalBody{Category: q.Category, Total: total.String()}).Write(w)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.deps.Records.Categories()
	if cats == nil {
		cats = []string{}
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	tax := s.deps.Taxonomy
	if tax == nil {
		tax = core.DefaultTaxonomy()
	}
	NewJSONResponse().Body(tax).Write(w)
}
