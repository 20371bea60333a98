package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vectorbase/internal/api/response"
	"vectorbase/internal/service"
)

// SearchHandler exposes nearest-neighbor search over HTTP.
type SearchHandler struct {
	svc *service.Facade
}

// NewSearchHandler creates a search handler bound to a service facade.
func NewSearchHandler(svc *service.Facade) *SearchHandler {
	return &SearchHandler{svc: svc}
}

const defaultSearchTopK = 10

// Search handles POST /libraries/{id}/search?query_text=...&top_k=....
// top_k, when present and parseable, is passed through as-is (including an
// explicit 0, which yields an empty result list); it defaults only when the
// parameter is absent, and a non-integer value is rejected with 400.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "id")

	queryText := r.URL.Query().Get("query_text")
	if queryText == "" {
		response.WriteBadRequest(w, "query_text is required")
		return
	}

	topK := defaultSearchTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.WriteBadRequest(w, "top_k must be an integer", err.Error())
			return
		}
		topK = parsed
	}

	results, err := h.svc.Search(r.Context(), libraryID, queryText, topK)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, results)
}
